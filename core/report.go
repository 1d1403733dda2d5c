package core

import (
	"fmt"
	"time"
)

// ReportType classifies why an item was reported.
type ReportType string

const (
	ReportSpam          ReportType = "spam"
	ReportScam          ReportType = "scam"
	ReportInappropriate ReportType = "inappropriate"
	ReportOther         ReportType = "other"
)

// MaxReportComment bounds the free-text comment of a report, in characters.
const MaxReportComment = 500

// Report flags an item for moderation. The reported username and item title
// are copied at report time so the report survives edits and deletions.
type Report struct {
	Id               ID
	ItemID           ID         `validate:"required"`
	ReporterID       ID         `validate:"required"`
	ReportedUserID   ID
	Type             ReportType `validate:"required,oneof=spam scam inappropriate other"`
	Comment          string     `validate:"max=500"`
	ReportedUsername string
	ItemTitle        string
	InsertedAt       time.Time
}

// ReportIDFor derives the report ID from reporter, item and type. One
// reporter can file each type of report against an item once.
func ReportIDFor(reporter, item ID, reportType ReportType) ID {
	return IDFromContent(fmt.Sprintf("report:%d:%d:%s", reporter, item, reportType))
}

// NewReport builds a report of item by reporter with a content-derived ID.
func NewReport(item *Item, reporter ID, reportType ReportType, comment string) *Report {
	return &Report{
		Id:             ReportIDFor(reporter, item.Id, reportType),
		ItemID:         item.Id,
		ReporterID:     reporter,
		ReportedUserID: item.OwnerID,
		Type:           reportType,
		Comment:        comment,
		ItemTitle:      item.Title,
		InsertedAt:     time.Now().UTC(),
	}
}

// ValidateReport checks the report type, comment length and references.
func ValidateReport(report *Report) error {
	if report == nil {
		return fmt.Errorf("%w: report is nil", ErrInvalidReport)
	}
	if err := validate.Struct(report); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidReport, translate(err))
	}
	if !IsValidTimestamp(report.InsertedAt) {
		return fmt.Errorf("%w: %w", ErrInvalidReport, ErrInvalidTimestamp)
	}
	return nil
}
