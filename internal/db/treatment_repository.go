package db

import (
	"context"

	"github.com/terraincognita07/dialytics/internal/models"
	"gorm.io/gorm"
)

type TreatmentRepository struct {
	database *gorm.DB
}

func NewTreatmentRepository(database *gorm.DB) *TreatmentRepository {
	return &TreatmentRepository{database: database}
}

// ListByPatient returns every exchange for the patient, oldest first.
func (repo *TreatmentRepository) ListByPatient(ctx context.Context, patientID string) ([]models.TreatmentRecord, error) {
	records := make([]models.TreatmentRecord, 0)
	if err := repo.database.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("treatment_date ASC, id ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func replaceTreatments(tx *gorm.DB, patientID string, records []models.TreatmentRecord) error {
	if err := tx.Where("patient_id = ?", patientID).Delete(&models.TreatmentRecord{}).Error; err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}
	for index := range records {
		records[index].ID = 0
		records[index].PatientID = patientID
	}
	return tx.CreateInBatches(records, 200).Error
}
