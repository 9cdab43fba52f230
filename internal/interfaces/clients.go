// Package interfaces defines service contracts for Pagoda
package interfaces

import (
	"context"

	"github.com/bobmcallan/pagoda/internal/models"
)

// VisionClient identifies a dish in a photo and maps it onto the food pagoda.
type VisionClient interface {
	// AnalyzeImage checks the photo shows food and returns a free-text
	// ingredient report. An unusable photo is reported via IsValid=false,
	// not an error.
	AnalyzeImage(ctx context.Context, image []byte, mimeType string) (*models.VisionReport, error)

	// Summarize turns a vision report into the structured nutrition report.
	Summarize(ctx context.Context, visionReport string) (*models.Report, error)
}
