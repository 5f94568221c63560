package services

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode"

	"github.com/terraincognita07/dialytics/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrInvalidEmail          = errors.New("invalid email")
	ErrWeakPassword          = errors.New("weak password")
	ErrClinicianExists       = errors.New("clinician already exists")
	ErrClinicianNotFound     = errors.New("clinician not found")
	ErrCreateClinicianFailed = errors.New("create clinician failed")
)

const minClinicianPasswordLength = 10

type AuthUserRepository interface {
	FindByID(userID uint) (models.User, error)
	FindByNormalizedEmail(email string) (models.User, error)
	ExistsByNormalizedEmail(email string) (bool, error)
	Create(user *models.User) error
	Save(user *models.User) error
}

type AuthService struct {
	users AuthUserRepository
}

func NewAuthService(users AuthUserRepository) *AuthService {
	return &AuthService{users: users}
}

func NormalizeAuthEmail(raw string) string {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return ""
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return ""
	}
	return email
}

// ValidatePasswordStrength requires mixed case and a digit.
func ValidatePasswordStrength(password string) error {
	if len([]rune(password)) < minClinicianPasswordLength {
		return ErrWeakPassword
	}

	var hasUpper, hasLower, hasDigit bool
	for _, char := range password {
		hasUpper = hasUpper || unicode.IsUpper(char)
		hasLower = hasLower || unicode.IsLower(char)
		hasDigit = hasDigit || unicode.IsDigit(char)
	}
	if !hasUpper || !hasLower || !hasDigit {
		return ErrWeakPassword
	}
	return nil
}

// Authenticate answers ErrInvalidCredentials for both an unknown email and a
// wrong password.
func (service *AuthService) Authenticate(rawEmail string, password string) (models.User, error) {
	email := NormalizeAuthEmail(rawEmail)
	if email == "" || password == "" {
		return models.User{}, ErrInvalidCredentials
	}

	user, err := service.users.FindByNormalizedEmail(email)
	if err != nil {
		return models.User{}, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return models.User{}, ErrInvalidCredentials
	}
	return user, nil
}

func (service *AuthService) FindByID(userID uint) (models.User, error) {
	return service.users.FindByID(userID)
}

func (service *AuthService) CreateClinician(rawEmail string, password string, role string, mustChangePassword bool) (models.User, error) {
	email := NormalizeAuthEmail(rawEmail)
	if email == "" {
		return models.User{}, ErrInvalidEmail
	}
	if err := ValidatePasswordStrength(password); err != nil {
		return models.User{}, err
	}
	if role != models.RoleAdmin {
		role = models.RoleClinician
	}

	exists, err := service.users.ExistsByNormalizedEmail(email)
	if err != nil {
		return models.User{}, fmt.Errorf("%w: %v", ErrCreateClinicianFailed, err)
	}
	if exists {
		return models.User{}, ErrClinicianExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("%w: %v", ErrCreateClinicianFailed, err)
	}

	user := models.User{
		Email:              email,
		PasswordHash:       string(hash),
		Role:               role,
		MustChangePassword: mustChangePassword,
	}
	if err := service.users.Create(&user); err != nil {
		return models.User{}, fmt.Errorf("%w: %v", ErrCreateClinicianFailed, err)
	}
	return user, nil
}

// ResetPassword stores password and flags the account for a forced change.
func (service *AuthService) ResetPassword(rawEmail string, password string) (models.User, error) {
	email := NormalizeAuthEmail(rawEmail)
	if email == "" {
		return models.User{}, ErrInvalidEmail
	}
	if err := ValidatePasswordStrength(password); err != nil {
		return models.User{}, err
	}

	user, err := service.users.FindByNormalizedEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrClinicianNotFound
		}
		return models.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, err
	}
	user.PasswordHash = string(hash)
	user.MustChangePassword = true
	if err := service.users.Save(&user); err != nil {
		return models.User{}, err
	}
	return user, nil
}
