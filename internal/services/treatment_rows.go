package services

import (
	"time"

	"github.com/terraincognita07/dialytics/internal/models"
)

// TreatmentRow is one exchange with every display value already derived.
type TreatmentRow struct {
	ID                uint                   `json:"id,omitempty"`
	Date              string                 `json:"date"`
	Time              string                 `json:"time"`
	TreatedAt         string                 `json:"treated_at"`
	Status            models.TreatmentStatus `json:"status"`
	VolumeIn          int                    `json:"volume_in"`
	VolumeOut         int                    `json:"volume_out"`
	NetBalance        int                    `json:"net_balance"`
	EffluentColor     string                 `json:"effluent_color,omitempty"`
	DialysateStrength string                 `json:"dialysate_strength,omitempty"`
	FillStarted       string                 `json:"fill_started"`
	FillFinished      string                 `json:"fill_finished"`
	DrainStarted      string                 `json:"drain_started"`
	DrainFinished     string                 `json:"drain_finished"`
	PhaseDurations
}

// BuildTreatmentRows keeps the input order. Undated records get the N/A
// sentinel for their date and time.
func BuildTreatmentRows(records []models.TreatmentRecord, location *time.Location) []TreatmentRow {
	rows := make([]TreatmentRow, 0, len(records))
	for _, record := range records {
		row := TreatmentRow{
			ID:                record.ID,
			Date:              NotAvailable,
			Time:              NotAvailable,
			TreatedAt:         NotAvailable,
			Status:            record.Status,
			VolumeIn:          record.VolumeIn,
			VolumeOut:         record.VolumeOut,
			NetBalance:        record.NetBalance(),
			EffluentColor:     record.EffluentColor,
			DialysateStrength: record.DialysateStrength,
			FillStarted:       FormatClockTime(record.InStarted, location),
			FillFinished:      FormatClockTime(record.InFinished, location),
			DrainStarted:      FormatClockTime(record.DrainStarted, location),
			DrainFinished:     FormatClockTime(record.DrainFinished, location),
			PhaseDurations:    TreatmentPhaseDurations(record),
		}
		if record.HasDate() {
			treatedAt := record.TreatmentDate
			row.Date = DayKey(treatedAt, location)
			row.Time = FormatClockTime(&treatedAt, location)
			row.TreatedAt = FormatDateTime(&treatedAt, location)
		}
		rows = append(rows, row)
	}
	return rows
}
