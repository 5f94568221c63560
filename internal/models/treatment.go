package models

import (
	"strings"
	"time"
)

type TreatmentStatus string

const (
	StatusScheduled TreatmentStatus = "scheduled"
	StatusOngoing   TreatmentStatus = "ongoing"
	StatusCompleted TreatmentStatus = "completed"
	StatusCancelled TreatmentStatus = "cancelled"
	StatusUnknown   TreatmentStatus = "unknown"
)

// ParseTreatmentStatus lowercases and trims raw status text. Anything outside
// the known set maps to StatusUnknown.
func ParseTreatmentStatus(raw string) TreatmentStatus {
	switch TreatmentStatus(strings.ToLower(strings.TrimSpace(raw))) {
	case StatusScheduled:
		return StatusScheduled
	case StatusOngoing:
		return StatusOngoing
	case StatusCompleted:
		return StatusCompleted
	case StatusCancelled, "canceled":
		return StatusCancelled
	default:
		return StatusUnknown
	}
}

type EffluentClarity string

const (
	EffluentNotRecorded EffluentClarity = ""
	EffluentClear       EffluentClarity = "clear"
	EffluentCloudy      EffluentClarity = "cloudy"
	EffluentBloody      EffluentClarity = "bloody"
	EffluentOther       EffluentClarity = "other"
)

// ClassifyEffluent expects already normalised text. "cloudy" and "turbid"
// both count as cloudy.
func ClassifyEffluent(normalized string) EffluentClarity {
	switch {
	case normalized == "":
		return EffluentNotRecorded
	case strings.Contains(normalized, "cloudy"), strings.Contains(normalized, "turbid"):
		return EffluentCloudy
	case strings.Contains(normalized, "blood"):
		return EffluentBloody
	case strings.Contains(normalized, "clear"):
		return EffluentClear
	default:
		return EffluentOther
	}
}

type GlucoseLevel string

const (
	GlucoseNotRecorded GlucoseLevel = ""
	GlucoseStandard    GlucoseLevel = "standard"
	GlucoseHigh        GlucoseLevel = "high"
)

var highGlucoseStrengths = []string{"2.5%", "3.86%", "4.25%"}

// ClassifyDialysate expects already normalised text.
func ClassifyDialysate(normalized string) GlucoseLevel {
	if normalized == "" {
		return GlucoseNotRecorded
	}
	for _, marker := range highGlucoseStrengths {
		if strings.Contains(normalized, marker) {
			return GlucoseHigh
		}
	}
	return GlucoseStandard
}

// NormalizeDescriptor is the single lowercase+trim step applied to free-text
// descriptors at ingestion.
func NormalizeDescriptor(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// TreatmentRecord is one peritoneal-dialysis exchange. Volumes are millilitres.
// A zero TreatmentDate means the source had no parseable date.
type TreatmentRecord struct {
	ID                uint            `gorm:"primaryKey" json:"id,omitempty"`
	PatientID         string          `gorm:"not null;index" json:"patient_id,omitempty"`
	TreatmentDate     time.Time       `json:"treatment_date"`
	VolumeIn          int             `gorm:"not null;default:0" json:"volume_in"`
	VolumeOut         int             `gorm:"not null;default:0" json:"volume_out"`
	InStarted         *time.Time      `json:"in_started,omitempty"`
	InFinished        *time.Time      `json:"in_finished,omitempty"`
	DrainStarted      *time.Time      `json:"drain_started,omitempty"`
	DrainFinished     *time.Time      `json:"drain_finished,omitempty"`
	Status            TreatmentStatus `gorm:"not null;default:unknown" json:"status"`
	EffluentColor     string          `json:"effluent_color,omitempty"`
	DialysateStrength string          `json:"dialysate_strength,omitempty"`
	CreatedAt         time.Time       `json:"-"`
}

func (TreatmentRecord) TableName() string {
	return "treatments"
}

// NetBalance is computed on demand and never stored.
func (record TreatmentRecord) NetBalance() int {
	return record.VolumeIn - record.VolumeOut
}

func (record TreatmentRecord) HasDate() bool {
	return !record.TreatmentDate.IsZero()
}

func (record TreatmentRecord) Effluent() EffluentClarity {
	return ClassifyEffluent(record.EffluentColor)
}

func (record TreatmentRecord) Glucose() GlucoseLevel {
	return ClassifyDialysate(record.DialysateStrength)
}
