package db

import "gorm.io/gorm"

type Repositories struct {
	Users      *UserRepository
	Patients   *PatientRepository
	Treatments *TreatmentRepository
	LabResults *LabResultRepository
}

func NewRepositories(database *gorm.DB) *Repositories {
	return &Repositories{
		Users:      NewUserRepository(database),
		Patients:   NewPatientRepository(database),
		Treatments: NewTreatmentRepository(database),
		LabResults: NewLabResultRepository(database),
	}
}
