package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/terraincognita07/dialytics/internal/services"
	"go.uber.org/zap"
)

// PatientImporter persists one normalized patient, replacing earlier data.
type PatientImporter interface {
	ImportPatientData(ctx context.Context, data services.PatientData) error
}

type ImportResult struct {
	PatientID  string
	Treatments int
	KtV        int
	Report     services.NormalizationReport
}

// ImportPatientFile loads a patient payload from a JSON file. A payload
// without a patient id is stored under a freshly generated one.
func ImportPatientFile(ctx context.Context, importer PatientImporter, path string, location *time.Location, logger *zap.Logger, out io.Writer) (ImportResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return ImportResult{}, fmt.Errorf("open import file: %w", err)
	}
	defer file.Close()

	return ImportPatientPayload(ctx, importer, file, location, logger, out)
}

func ImportPatientPayload(ctx context.Context, importer PatientImporter, input io.Reader, location *time.Location, logger *zap.Logger, out io.Writer) (ImportResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var payload services.RawPatientPayload
	decoder := json.NewDecoder(input)
	decoder.UseNumber()
	if err := decoder.Decode(&payload); err != nil {
		return ImportResult{}, fmt.Errorf("decode import file: %w", err)
	}
	if payload.Patient == nil && payload.Treatments == nil {
		return ImportResult{}, errors.New("import file has neither patient nor treatments")
	}

	data, report := services.NormalizePatientPayload(payload, location)
	if strings.TrimSpace(data.Patient.ID) == "" {
		data.Patient.ID = uuid.NewString()
		logger.Info("assigned patient id", zap.String("patient_id", data.Patient.ID))
	}
	for _, issue := range report.Issues {
		logger.Warn("import normalization issue", zap.String("patient_id", data.Patient.ID), zap.String("issue", issue))
	}

	if err := importer.ImportPatientData(ctx, data); err != nil {
		return ImportResult{}, fmt.Errorf("store patient %s: %w", data.Patient.ID, err)
	}

	result := ImportResult{
		PatientID:  data.Patient.ID,
		Treatments: len(data.Treatments),
		KtV:        len(data.KtV),
		Report:     report,
	}
	fmt.Fprintf(out, "Imported patient %s: %d treatments, %d Kt/V results\n", result.PatientID, result.Treatments, result.KtV)
	if len(report.Issues) > 0 {
		fmt.Fprintf(out, "%d values needed correction, see log for details\n", len(report.Issues))
	}
	return result, nil
}
