package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNewReport(t *testing.T) {
	item := &Item{Id: 12, Title: "black wallet", OwnerID: UserIDFor("alice")}
	reporter := UserIDFor("bob")

	r := NewReport(item, reporter, ReportSpam, "posted three times")
	if r.Id != ReportIDFor(reporter, 12, ReportSpam) {
		t.Errorf("Id = %d, want content-derived ID", r.Id)
	}
	if r.ReportedUserID != item.OwnerID {
		t.Errorf("ReportedUserID = %d, want item owner %d", r.ReportedUserID, item.OwnerID)
	}
	if r.ItemTitle != "black wallet" {
		t.Errorf("ItemTitle = %q", r.ItemTitle)
	}
	if err := ValidateReport(r); err != nil {
		t.Errorf("ValidateReport() = %v", err)
	}

	if ReportIDFor(reporter, 12, ReportSpam) == ReportIDFor(reporter, 12, ReportScam) {
		t.Error("report types must not share an ID")
	}
	if ReportIDFor(reporter, 12, ReportSpam) == ReportIDFor(UserIDFor("carol"), 12, ReportSpam) {
		t.Error("reporters must not share an ID")
	}
}

func TestValidateReport(t *testing.T) {
	valid := func() *Report {
		return &Report{
			ItemID:     1,
			ReporterID: UserIDFor("bob"),
			Type:       ReportOther,
			InsertedAt: time.Now().Add(-time.Minute),
		}
	}

	tests := []struct {
		name    string
		modify  func(r *Report)
		wantErr bool
	}{
		{"valid", func(r *Report) {}, false},
		{"inappropriate", func(r *Report) { r.Type = ReportInappropriate }, false},
		{"unknown type", func(r *Report) { r.Type = "rude" }, true},
		{"missing type", func(r *Report) { r.Type = "" }, true},
		{"missing item", func(r *Report) { r.ItemID = 0 }, true},
		{"missing reporter", func(r *Report) { r.ReporterID = 0 }, true},
		{"comment at limit", func(r *Report) { r.Comment = strings.Repeat("ก", MaxReportComment) }, false},
		{"comment too long", func(r *Report) { r.Comment = strings.Repeat("a", MaxReportComment+1) }, true},
		{"future timestamp", func(r *Report) { r.InsertedAt = time.Now().Add(time.Hour) }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid()
			tt.modify(r)
			err := ValidateReport(r)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateReport() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidReport) {
				t.Errorf("error %v does not wrap ErrInvalidReport", err)
			}
		})
	}

	if err := ValidateReport(nil); !errors.Is(err, ErrInvalidReport) {
		t.Errorf("ValidateReport(nil) = %v", err)
	}
}
