package services

import (
	"context"
	"errors"

	"github.com/terraincognita07/dialytics/internal/models"
)

var (
	ErrInvalidPatientID       = errors.New("invalid patient id")
	ErrPatientNotFound        = errors.New("patient not found")
	ErrPatientDataUnavailable = errors.New("patient data unavailable")
)

// PatientData is everything the engine needs for one patient query.
type PatientData struct {
	Patient    models.Patient
	Treatments []models.TreatmentRecord
	KtV        []KtVResult
}

// PatientDataSource is the input collaborator. Implementations return
// ErrPatientNotFound or wrap ErrPatientDataUnavailable; an existing patient
// without treatments is a successful, empty result.
type PatientDataSource interface {
	LoadPatientData(ctx context.Context, patientID string) (PatientData, error)
}
