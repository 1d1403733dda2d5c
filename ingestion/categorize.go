package ingestion

import (
	"context"
	"log/slog"
	"strings"

	"github.com/poiesic/lostfound/ai"
	"github.com/poiesic/lostfound/core"
)

// suggestCategory fills in item.Category when the uploader left it empty.
// Categorizer failures are logged and fall back to ai.CategoryOther;
// a missing category never fails an upload.
func suggestCategory(ctx context.Context, categorizer ai.Categorizer, item *core.Item, logger *slog.Logger) {
	item.Category = strings.TrimSpace(item.Category)
	if item.Category != "" {
		return
	}
	if categorizer == nil {
		item.Category = ai.CategoryOther
		return
	}

	category, err := categorizer.Categorize(ctx, item.Title)
	if err != nil {
		logger.Warn("category suggestion failed, using fallback", "title", item.Title, "err", err)
		category = ai.CategoryOther
	}
	if !ai.IsItemCategory(category) {
		category = ai.CategoryOther
	}

	logger.Debug("suggested category", "title", item.Title, "category", category)
	item.Category = category
}

// detectObject fills in the cropped and boxed images. Without a detector,
// or when detection fails, both are the original.
func detectObject(ctx context.Context, detector ai.Detector, item *core.Item, logger *slog.Logger) {
	item.Cropped, item.Boxed = item.Original, item.Original
	if detector == nil {
		return
	}

	cropped, boxed, err := detector.Detect(ctx, item.Original)
	if err != nil {
		logger.Warn("object detection failed, keeping original image", "err", err)
		return
	}
	if !cropped.Empty() {
		item.Cropped = cropped
	}
	if !boxed.Empty() {
		item.Boxed = boxed
	}
}
