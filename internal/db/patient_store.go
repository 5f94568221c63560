package db

import (
	"context"
	"fmt"

	"github.com/terraincognita07/dialytics/internal/models"
	"github.com/terraincognita07/dialytics/internal/services"
	"gorm.io/gorm"
)

// PatientDataStore serves patient records from the local SQLite store.
type PatientDataStore struct {
	database   *gorm.DB
	patients   *PatientRepository
	treatments *TreatmentRepository
	labResults *LabResultRepository
}

func NewPatientDataStore(database *gorm.DB) *PatientDataStore {
	return &PatientDataStore{
		database:   database,
		patients:   NewPatientRepository(database),
		treatments: NewTreatmentRepository(database),
		labResults: NewLabResultRepository(database),
	}
}

func (store *PatientDataStore) LoadPatientData(ctx context.Context, patientID string) (services.PatientData, error) {
	patient, found, err := store.patients.FindByID(ctx, patientID)
	if err != nil {
		return services.PatientData{}, unavailable(ctx, "load patient", err)
	}
	if !found {
		return services.PatientData{}, services.ErrPatientNotFound
	}

	treatments, err := store.treatments.ListByPatient(ctx, patientID)
	if err != nil {
		return services.PatientData{}, unavailable(ctx, "load treatments", err)
	}

	labResults, err := store.labResults.ListByPatientAndKind(ctx, patientID, models.LabKindKtV)
	if err != nil {
		return services.PatientData{}, unavailable(ctx, "load lab results", err)
	}

	ktv := make([]services.KtVResult, 0, len(labResults))
	for _, result := range labResults {
		ktv = append(ktv, services.KtVResult{Value: result.Value, MeasuredAt: result.MeasuredAt})
	}

	return services.PatientData{
		Patient:    patient,
		Treatments: treatments,
		KtV:        ktv,
	}, nil
}

// ImportPatientData stores data as the patient's full record set, replacing
// any treatments and Kt/V results stored for the same id.
func (store *PatientDataStore) ImportPatientData(ctx context.Context, data services.PatientData) error {
	if data.Patient.ID == "" {
		return services.ErrInvalidPatientID
	}

	labResults := make([]models.LabResult, 0, len(data.KtV))
	for _, result := range data.KtV {
		labResults = append(labResults, models.LabResult{Value: result.Value, MeasuredAt: result.MeasuredAt})
	}
	treatments := make([]models.TreatmentRecord, len(data.Treatments))
	copy(treatments, data.Treatments)

	return store.database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		patient := data.Patient
		if err := upsertPatient(tx, &patient); err != nil {
			return fmt.Errorf("store patient: %w", err)
		}
		if err := replaceTreatments(tx, patient.ID, treatments); err != nil {
			return fmt.Errorf("store treatments: %w", err)
		}
		if err := replaceLabResults(tx, patient.ID, models.LabKindKtV, labResults); err != nil {
			return fmt.Errorf("store lab results: %w", err)
		}
		return nil
	})
}

func (store *PatientDataStore) ListPatients(ctx context.Context) ([]models.Patient, error) {
	patients, err := store.patients.List(ctx)
	if err != nil {
		return nil, unavailable(ctx, "list patients", err)
	}
	return patients, nil
}

// unavailable keeps cancellation distinguishable from storage failures.
func unavailable(ctx context.Context, operation string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return fmt.Errorf("%w: %s: %v", services.ErrPatientDataUnavailable, operation, err)
}
