package services

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/terraincognita07/dialytics/internal/models"
)

// RawFields is one decoded JSON object from the upstream data service.
// Field names arrive in mixed casing (VolumeIn, volume_in, TreatmentStatus).
type RawFields map[string]any

// RawPatientPayload keeps every section untyped so a malformed section or
// list entry is reported during normalisation instead of failing the decode.
type RawPatientPayload struct {
	Patient    any `json:"patient"`
	Treatments any `json:"treatments"`
	LabResults any `json:"labResults"`
}

type NormalizationReport struct {
	UndatedTreatments int      `json:"undated_treatments"`
	SkippedTreatments int      `json:"skipped_treatments"`
	DroppedKtV        int      `json:"dropped_ktv"`
	Issues            []string `json:"issues"`
}

func (report *NormalizationReport) add(format string, args ...any) {
	report.Issues = append(report.Issues, fmt.Sprintf(format, args...))
}

// maxVolume is the largest plausible exchange volume in mL.
const maxVolume = 100000

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	dayKeyLayout,
}

var (
	treatmentDateFields = []string{"treatmentDate", "date"}
	volumeInFields      = []string{"volumeIn"}
	volumeOutFields     = []string{"volumeOut"}
	statusFields        = []string{"status", "treatmentStatus"}
	effluentFields      = []string{"effluentColor", "effluent"}
	dialysateFields     = []string{"dialysateStrength", "dialysate"}
	birthDateFields     = []string{"dateOfBirth", "dob", "birthDate"}
)

// NormalizeTreatment converts one raw record. It never fails: unusable
// values become zero values and are listed in the returned issues.
func NormalizeTreatment(raw RawFields, location *time.Location) (models.TreatmentRecord, []string) {
	report := NormalizationReport{}
	record := normalizeTreatment(raw, location, &report, 0)
	return record, report.Issues
}

func normalizeTreatment(raw RawFields, location *time.Location, report *NormalizationReport, index int) models.TreatmentRecord {
	fields := indexFields(raw)
	record := models.TreatmentRecord{}

	if value, ok := fields.lookup(treatmentDateFields...); ok {
		parsed, err := parseTimestamp(value, location)
		if err != nil {
			report.add("treatment %d: %v", index, err)
		} else {
			record.TreatmentDate = parsed
		}
	} else {
		report.add("treatment %d: missing treatment date", index)
	}
	if record.TreatmentDate.IsZero() {
		report.UndatedTreatments++
	}

	record.VolumeIn = normalizeVolume(fields, volumeInFields, report, index)
	record.VolumeOut = normalizeVolume(fields, volumeOutFields, report, index)
	record.InStarted = optionalTimestamp(fields, "inStarted", location, report, index)
	record.InFinished = optionalTimestamp(fields, "inFinished", location, report, index)
	record.DrainStarted = optionalTimestamp(fields, "drainStarted", location, report, index)
	record.DrainFinished = optionalTimestamp(fields, "drainFinished", location, report, index)
	record.Status = models.ParseTreatmentStatus(fields.text(statusFields...))
	record.EffluentColor = models.NormalizeDescriptor(fields.text(effluentFields...))
	record.DialysateStrength = models.NormalizeDescriptor(fields.text(dialysateFields...))
	return record
}

// NormalizePatientPayload converts a whole upstream payload.
func NormalizePatientPayload(payload RawPatientPayload, location *time.Location) (PatientData, NormalizationReport) {
	report := NormalizationReport{Issues: make([]string, 0)}
	patient, ok := asFields(payload.Patient)
	if !ok && payload.Patient != nil {
		report.add("patient: expected an object, got %T", payload.Patient)
	}

	entries := asList(payload.Treatments, "treatments", &report)
	data := PatientData{
		Patient:    normalizePatient(patient, location, &report),
		Treatments: make([]models.TreatmentRecord, 0, len(entries)),
		KtV:        make([]KtVResult, 0),
	}

	for index, entry := range entries {
		raw, ok := asFields(entry)
		if !ok {
			report.SkippedTreatments++
			report.add("treatment %d: expected an object, got %T", index, entry)
			continue
		}
		record := normalizeTreatment(raw, location, &report, index)
		record.PatientID = data.Patient.ID
		data.Treatments = append(data.Treatments, record)
	}

	labResults, ok := asFields(payload.LabResults)
	if !ok && payload.LabResults != nil {
		report.add("labResults: expected an object, got %T", payload.LabResults)
	}
	labs := indexFields(labResults)
	if rawKtV, ok := labs.lookup("ktv"); ok {
		entries, isList := rawKtV.([]any)
		if !isList {
			report.add("labResults.ktv: expected a list, got %T", rawKtV)
		}
		for index, entry := range entries {
			result, ok := ktvEntry(entry, location)
			if !ok {
				report.DroppedKtV++
				report.add("labResults.ktv[%d]: unusable value", index)
				continue
			}
			data.KtV = append(data.KtV, result)
		}
	}

	return data, report
}

func asFields(value any) (RawFields, bool) {
	switch typed := value.(type) {
	case RawFields:
		return typed, true
	case map[string]any:
		return RawFields(typed), true
	default:
		return nil, false
	}
}

func asList(value any, name string, report *NormalizationReport) []any {
	switch typed := value.(type) {
	case nil:
		return nil
	case []any:
		return typed
	case []RawFields:
		entries := make([]any, 0, len(typed))
		for _, entry := range typed {
			entries = append(entries, entry)
		}
		return entries
	default:
		report.add("%s: expected a list, got %T", name, value)
		return nil
	}
}

func normalizePatient(raw RawFields, location *time.Location, report *NormalizationReport) models.Patient {
	fields := indexFields(raw)
	patient := models.Patient{
		ID:       fields.text("id", "patientId"),
		Gender:   models.NormalizeDescriptor(fields.text("gender")),
		Modality: models.NormalizeDescriptor(fields.text("modality")),
	}
	if value, ok := fields.lookup(birthDateFields...); ok {
		parsed, err := parseTimestamp(value, location)
		if err != nil {
			report.add("patient: %v", err)
		} else {
			birth := DateAtLocation(parsed, location)
			patient.DateOfBirth = &birth
		}
	}
	return patient
}

// ktvEntry accepts a bare number or an object with a value and an optional
// measurement timestamp.
func ktvEntry(entry any, location *time.Location) (KtVResult, bool) {
	object, isObject := entry.(map[string]any)
	if !isObject {
		value, ok := ktvValue(entry)
		return KtVResult{Value: value}, ok
	}

	fields := indexFields(object)
	rawValue, ok := fields.lookup("value")
	if !ok {
		return KtVResult{}, false
	}
	value, ok := ktvValue(rawValue)
	if !ok {
		return KtVResult{}, false
	}
	result := KtVResult{Value: value}
	if rawMeasured, ok := fields.lookup("measuredAt", "date"); ok {
		if measured, err := parseTimestamp(rawMeasured, location); err == nil {
			result.MeasuredAt = &measured
		}
	}
	return result, true
}

func ktvValue(value any) (float64, bool) {
	number, ok := parseNumber(value)
	if !ok || math.IsInf(number, 0) || number <= 0 {
		return 0, false
	}
	return number, true
}

func normalizeVolume(fields indexedFields, names []string, report *NormalizationReport, index int) int {
	value, ok := fields.lookup(names...)
	if !ok || value == nil {
		return 0
	}
	number, ok := parseNumber(value)
	if !ok || number < 0 || math.IsInf(number, 0) {
		report.add("treatment %d: unusable %s %v", index, names[0], value)
		return 0
	}
	if number > maxVolume {
		report.add("treatment %d: %s %v exceeds %d mL", index, names[0], value, maxVolume)
		return 0
	}
	return int(math.Round(number))
}

func optionalTimestamp(fields indexedFields, name string, location *time.Location, report *NormalizationReport, index int) *time.Time {
	value, ok := fields.lookup(name)
	if !ok || value == nil {
		return nil
	}
	parsed, err := parseTimestamp(value, location)
	if err != nil {
		report.add("treatment %d: %s: %v", index, name, err)
		return nil
	}
	return &parsed
}

// parseNumber accepts JSON numbers and numeric strings. NaN is rejected.
func parseNumber(value any) (float64, bool) {
	var number float64
	switch typed := value.(type) {
	case float64:
		number = typed
	case float32:
		number = float64(typed)
	case int:
		number = float64(typed)
	case int64:
		number = float64(typed)
	case json.Number:
		parsed, err := typed.Float64()
		if err != nil {
			return 0, false
		}
		number = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(typed), 64)
		if err != nil {
			return 0, false
		}
		number = parsed
	default:
		return 0, false
	}
	if math.IsNaN(number) {
		return 0, false
	}
	return number, true
}

func parseTimestamp(value any, location *time.Location) (time.Time, error) {
	if location == nil {
		location = time.UTC
	}
	switch typed := value.(type) {
	case time.Time:
		return typed, nil
	case string:
		trimmed := strings.TrimSpace(typed)
		if trimmed == "" {
			return time.Time{}, fmt.Errorf("empty timestamp")
		}
		for _, layout := range timestampLayouts {
			if parsed, err := time.ParseInLocation(layout, trimmed, location); err == nil {
				return parsed, nil
			}
		}
		return time.Time{}, fmt.Errorf("unparseable timestamp %q", trimmed)
	default:
		return time.Time{}, fmt.Errorf("unsupported timestamp type %T", value)
	}
}

type indexedFields map[string]any

func indexFields(raw map[string]any) indexedFields {
	fields := make(indexedFields, len(raw))
	for key, value := range raw {
		fields[canonicalFieldName(key)] = value
	}
	return fields
}

func (fields indexedFields) lookup(names ...string) (any, bool) {
	for _, name := range names {
		if value, ok := fields[canonicalFieldName(name)]; ok {
			return value, true
		}
	}
	return nil, false
}

func (fields indexedFields) text(names ...string) string {
	value, ok := fields.lookup(names...)
	if !ok || value == nil {
		return ""
	}
	switch typed := value.(type) {
	case string:
		return strings.TrimSpace(typed)
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case json.Number:
		return typed.String()
	default:
		return strings.TrimSpace(fmt.Sprint(typed))
	}
}

// canonicalFieldName folds case and drops separators so that VolumeIn,
// volumeIn and volume_in share one key.
func canonicalFieldName(name string) string {
	var builder strings.Builder
	builder.Grow(len(name))
	for _, char := range strings.ToLower(name) {
		if char == '_' || char == '-' || char == ' ' {
			continue
		}
		builder.WriteRune(char)
	}
	return builder.String()
}
