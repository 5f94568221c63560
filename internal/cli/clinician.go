package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/terraincognita07/dialytics/internal/models"
	"github.com/terraincognita07/dialytics/internal/security"
	"github.com/terraincognita07/dialytics/internal/services"
)

const temporaryPasswordLength = 16

// ClinicianAccounts is the part of services.AuthService the account commands use.
type ClinicianAccounts interface {
	CreateClinician(rawEmail string, password string, role string, mustChangePassword bool) (models.User, error)
	ResetPassword(rawEmail string, password string) (models.User, error)
}

// CreateClinician stores a new account. Without a password a temporary one is
// generated, printed once and flagged for change on first login.
func CreateClinician(accounts ClinicianAccounts, email string, role string, password string, out io.Writer) (models.User, error) {
	mustChange := false
	generated := password == ""
	if generated {
		temporary, err := security.TemporaryPassword(temporaryPasswordLength)
		if err != nil {
			return models.User{}, fmt.Errorf("generate temporary password: %w", err)
		}
		password = temporary
		mustChange = true
	}

	user, err := accounts.CreateClinician(email, password, role, mustChange)
	if err != nil {
		return models.User{}, describeAccountError(err, email)
	}

	fmt.Fprintf(out, "Created %s account %s\n", user.Role, user.Email)
	if generated {
		fmt.Fprintf(out, "Temporary password: %s\n", password)
		fmt.Fprintln(out, "User must change password on next login.")
	}
	return user, nil
}

// ResetClinicianPassword replaces the password with a generated temporary one.
func ResetClinicianPassword(accounts ClinicianAccounts, email string, out io.Writer) (models.User, error) {
	temporary, err := security.TemporaryPassword(temporaryPasswordLength)
	if err != nil {
		return models.User{}, fmt.Errorf("generate temporary password: %w", err)
	}

	user, err := accounts.ResetPassword(email, temporary)
	if err != nil {
		return models.User{}, describeAccountError(err, email)
	}

	fmt.Fprintln(out, "Password reset successful")
	fmt.Fprintf(out, "Temporary password: %s\n", temporary)
	fmt.Fprintln(out, "User must change password on next login.")
	return user, nil
}

func describeAccountError(err error, email string) error {
	switch {
	case errors.Is(err, services.ErrInvalidEmail):
		return fmt.Errorf("invalid email address %q: %w", email, err)
	case errors.Is(err, services.ErrWeakPassword):
		return fmt.Errorf("password needs at least 10 characters with upper case, lower case and a digit: %w", err)
	case errors.Is(err, services.ErrClinicianExists):
		return fmt.Errorf("account %s already exists: %w", email, err)
	case errors.Is(err, services.ErrClinicianNotFound):
		return fmt.Errorf("account %s not found: %w", email, err)
	default:
		return err
	}
}
