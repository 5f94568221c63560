package db

import (
	"context"

	"github.com/terraincognita07/dialytics/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PatientRepository struct {
	database *gorm.DB
}

func NewPatientRepository(database *gorm.DB) *PatientRepository {
	return &PatientRepository{database: database}
}

// FindByID reports found=false without an error when no row matches.
func (repo *PatientRepository) FindByID(ctx context.Context, patientID string) (models.Patient, bool, error) {
	patient := models.Patient{}
	result := repo.database.WithContext(ctx).
		Where("id = ?", patientID).
		Limit(1).
		Find(&patient)
	if result.Error != nil {
		return models.Patient{}, false, result.Error
	}
	if result.RowsAffected == 0 {
		return models.Patient{}, false, nil
	}
	return patient, true, nil
}

func (repo *PatientRepository) List(ctx context.Context) ([]models.Patient, error) {
	patients := make([]models.Patient, 0)
	if err := repo.database.WithContext(ctx).Order("id ASC").Find(&patients).Error; err != nil {
		return nil, err
	}
	return patients, nil
}

// Upsert inserts the patient or refreshes its demographic columns.
func (repo *PatientRepository) Upsert(ctx context.Context, patient *models.Patient) error {
	return upsertPatient(repo.database.WithContext(ctx), patient)
}

func upsertPatient(tx *gorm.DB, patient *models.Patient) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"date_of_birth", "gender", "modality"}),
	}).Create(patient).Error
}
