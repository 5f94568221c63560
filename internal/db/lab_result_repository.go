package db

import (
	"context"

	"github.com/terraincognita07/dialytics/internal/models"
	"gorm.io/gorm"
)

type LabResultRepository struct {
	database *gorm.DB
}

func NewLabResultRepository(database *gorm.DB) *LabResultRepository {
	return &LabResultRepository{database: database}
}

// ListByPatientAndKind returns results oldest first. Results without a
// measurement time sort ahead of dated ones.
func (repo *LabResultRepository) ListByPatientAndKind(ctx context.Context, patientID string, kind string) ([]models.LabResult, error) {
	results := make([]models.LabResult, 0)
	if err := repo.database.WithContext(ctx).
		Where("patient_id = ? AND kind = ?", patientID, kind).
		Order("measured_at ASC, id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func replaceLabResults(tx *gorm.DB, patientID string, kind string, results []models.LabResult) error {
	if err := tx.Where("patient_id = ? AND kind = ?", patientID, kind).Delete(&models.LabResult{}).Error; err != nil {
		return err
	}
	if len(results) == 0 {
		return nil
	}
	for index := range results {
		results[index].ID = 0
		results[index].PatientID = patientID
		results[index].Kind = kind
	}
	return tx.Create(&results).Error
}
