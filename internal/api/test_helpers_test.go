package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/dialytics/internal/models"
	"github.com/terraincognita07/dialytics/internal/services"
	"gorm.io/gorm"
)

const (
	testSecret   = "0123456789abcdef0123456789abcdef"
	testEmail    = "nurse@clinic.example"
	testPassword = "ClinicPass42"
)

var testNow = time.Date(2024, time.March, 3, 20, 0, 0, 0, time.UTC)

type memoryUserRepo struct {
	users  []models.User
	nextID uint
}

func (repo *memoryUserRepo) FindByID(userID uint) (models.User, error) {
	for _, user := range repo.users {
		if user.ID == userID {
			return user, nil
		}
	}
	return models.User{}, gorm.ErrRecordNotFound
}

func (repo *memoryUserRepo) FindByNormalizedEmail(email string) (models.User, error) {
	for _, user := range repo.users {
		if user.Email == email {
			return user, nil
		}
	}
	return models.User{}, gorm.ErrRecordNotFound
}

func (repo *memoryUserRepo) ExistsByNormalizedEmail(email string) (bool, error) {
	_, err := repo.FindByNormalizedEmail(email)
	return err == nil, nil
}

func (repo *memoryUserRepo) Create(user *models.User) error {
	repo.nextID++
	user.ID = repo.nextID
	repo.users = append(repo.users, *user)
	return nil
}

func (repo *memoryUserRepo) Save(user *models.User) error {
	for index := range repo.users {
		if repo.users[index].ID == user.ID {
			repo.users[index] = *user
		}
	}
	return nil
}

type stubSource struct {
	data map[string]services.PatientData
	err  error
}

func (stub *stubSource) LoadPatientData(_ context.Context, patientID string) (services.PatientData, error) {
	if stub.err != nil {
		return services.PatientData{}, stub.err
	}
	data, ok := stub.data[patientID]
	if !ok {
		return services.PatientData{}, services.ErrPatientNotFound
	}
	return data, nil
}

func (stub *stubSource) ListPatients(context.Context) ([]models.Patient, error) {
	patients := make([]models.Patient, 0, len(stub.data))
	for _, data := range stub.data {
		patients = append(patients, data.Patient)
	}
	return patients, nil
}

func exchange(day int, hour int, volumeIn int, volumeOut int, status models.TreatmentStatus) models.TreatmentRecord {
	return models.TreatmentRecord{
		PatientID:     "p-1",
		TreatmentDate: time.Date(2024, time.March, day, hour, 0, 0, 0, time.UTC),
		VolumeIn:      volumeIn,
		VolumeOut:     volumeOut,
		Status:        status,
	}
}

func samplePatients() map[string]services.PatientData {
	birth := time.Date(1960, time.January, 15, 0, 0, 0, 0, time.UTC)
	return map[string]services.PatientData{
		"p-1": {
			Patient: models.Patient{ID: "p-1", DateOfBirth: &birth, Gender: "female", Modality: "capd"},
			Treatments: []models.TreatmentRecord{
				exchange(1, 8, 2500, 2000, models.StatusCompleted),
				exchange(1, 14, 2300, 2000, models.StatusCompleted),
				exchange(2, 8, 2000, 2100, models.StatusCompleted),
				exchange(3, 8, 2000, 1900, models.StatusCancelled),
				{PatientID: "p-1", VolumeIn: 2000, VolumeOut: 1000},
			},
			KtV: []services.KtVResult{{Value: 1.9}, {Value: 1.5}},
		},
		"p-empty": {Patient: models.Patient{ID: "p-empty"}},
	}
}

type testEnv struct {
	app    *fiber.App
	source *stubSource
	token  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	source := &stubSource{data: samplePatients()}
	auth := services.NewAuthService(&memoryUserRepo{})
	if _, err := auth.CreateClinician(testEmail, testPassword, models.RoleClinician, false); err != nil {
		t.Fatalf("create clinician: %v", err)
	}

	handler, err := NewHandler(
		services.NewAnalyticsService(source, time.UTC, nil),
		auth,
		Options{
			SecretKey: testSecret,
			Patients:  source,
			Now:       func() time.Time { return testNow },
		},
	)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}

	env := &testEnv{app: NewApp(handler), source: source}
	env.token = env.login(t, testEmail, testPassword)
	return env
}

func (env *testEnv) login(t *testing.T, email string, password string) string {
	t.Helper()

	response := env.request(t, http.MethodPost, "/api/auth/login", map[string]string{"email": email, "password": password}, "")
	if response.StatusCode != fiber.StatusOK {
		t.Fatalf("login: expected status 200, got %d", response.StatusCode)
	}
	payload := loginResponse{}
	decodeJSON(t, response, &payload)
	if payload.Token == "" {
		t.Fatal("login: expected token")
	}
	return payload.Token
}

func (env *testEnv) request(t *testing.T, method string, path string, body any, token string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encode body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}
	request := httptest.NewRequest(method, path, reader)
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}

	response, err := env.app.Test(request, -1)
	if err != nil {
		t.Fatalf("request %s %s: %v", method, path, err)
	}
	return response
}

func (env *testEnv) get(t *testing.T, path string) *http.Response {
	t.Helper()
	return env.request(t, http.MethodGet, path, nil, env.token)
}

func decodeJSON(t *testing.T, response *http.Response, target any) {
	t.Helper()
	defer response.Body.Close()
	if err := json.NewDecoder(response.Body).Decode(target); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func readAPIError(t *testing.T, response *http.Response) string {
	t.Helper()
	payload := map[string]string{}
	decodeJSON(t, response, &payload)
	return strings.TrimSpace(payload["error"])
}
