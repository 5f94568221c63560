package models

import "time"

const LabKindKtV = "ktv"

type Patient struct {
	ID          string     `gorm:"primaryKey" json:"id"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	Gender      string     `json:"gender,omitempty"`
	Modality    string     `json:"modality,omitempty"`
	CreatedAt   time.Time  `json:"-"`
}

type LabResult struct {
	ID         uint       `gorm:"primaryKey" json:"id,omitempty"`
	PatientID  string     `gorm:"not null;index" json:"patient_id,omitempty"`
	Kind       string     `gorm:"not null" json:"kind"`
	Value      float64    `gorm:"not null" json:"value"`
	MeasuredAt *time.Time `json:"measured_at,omitempty"`
}
