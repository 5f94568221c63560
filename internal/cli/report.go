package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/terraincognita07/dialytics/internal/services"
)

type ReportBuilder interface {
	BuildReport(ctx context.Context, patientID string, rangeInDays int, now time.Time) (services.PatientReport, error)
}

// WriteReport prints the combined patient report as indented JSON.
func WriteReport(ctx context.Context, builder ReportBuilder, patientID string, rangeInDays int, now time.Time, out io.Writer) error {
	report, err := builder.BuildReport(ctx, patientID, rangeInDays, now)
	if err != nil {
		return fmt.Errorf("build report for %s: %w", patientID, err)
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
