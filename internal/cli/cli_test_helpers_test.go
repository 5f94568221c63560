package cli

import (
	"path/filepath"
	"testing"

	"github.com/terraincognita07/dialytics/internal/db"
	"github.com/terraincognita07/dialytics/internal/services"
	"gorm.io/gorm"
)

func openTestDatabase(t *testing.T) *gorm.DB {
	t.Helper()

	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "dialytics-cli.db"), nil)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close(database)
	})
	return database
}

func newTestAuthService(t *testing.T) *services.AuthService {
	t.Helper()
	return services.NewAuthService(db.NewRepositories(openTestDatabase(t)).Users)
}

const samplePayload = `{
  "patient": {"id": "p-100", "dateOfBirth": "1950-06-01", "gender": "Female", "modality": "CAPD"},
  "treatments": [
    {"treatmentDate": "2024-03-01T08:00:00Z", "volumeIn": 2000, "volumeOut": 2300, "status": "Completed", "effluentColor": "Clear"},
    {"treatmentDate": "2024-03-02T08:00:00Z", "volumeIn": "2000", "volumeOut": 1500, "status": "completed", "dialysateStrength": "2.5%"},
    {"volumeIn": 2000, "volumeOut": 2000}
  ],
  "labResults": {"ktv": [{"value": 1.9, "measuredAt": "2024-02-01"}, 1.6, "bad"]}
}`
