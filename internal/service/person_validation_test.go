package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
)

type stubUniq struct {
	emails   map[string]bool
	pns      map[string]bool
	emailErr error
	pnErr    error
}

func (s *stubUniq) EmailTaken(ctx context.Context, email string) (bool, error) {
	if s.emailErr != nil {
		return false, s.emailErr
	}
	return s.emails[email], nil
}

func (s *stubUniq) PersonalNumberTaken(ctx context.Context, pn string) (bool, error) {
	if s.pnErr != nil {
		return false, s.pnErr
	}
	return s.pns[pn], nil
}

type stubNotifier struct {
	calls []string
}

func (s *stubNotifier) NotifyRegistration(email, fullName, name, role, password string) {
	s.calls = append(s.calls, email)
}

func validPersonPayload() PersonPayload {
	return PersonPayload{
		Name:            "Ana",
		Surname:         "Petrova",
		Gender:          "FEMALE",
		BirthDate:       time.Now().UTC().AddDate(-25, 0, 0),
		Email:           "ana@example.com",
		PersonalNumber:  "1234567890",
		Password:        "supersecret",
		ConfirmPassword: "supersecret",
	}
}

func TestValidateNewCredentialsPasswordMismatchFirst(t *testing.T) {
	payload := validPersonPayload()
	payload.ConfirmPassword = "different"
	// Email is also taken; the password check must win.
	uniq := &stubUniq{emails: map[string]bool{payload.Email: true}}

	err := validateNewCredentials(context.Background(), uniq, payload)
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestValidateNewCredentialsEmailTaken(t *testing.T) {
	payload := validPersonPayload()
	uniq := &stubUniq{emails: map[string]bool{payload.Email: true}}

	err := validateNewCredentials(context.Background(), uniq, payload)
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrEmailExists.Code, appErr.Code)
}

func TestValidateNewCredentialsPersonalNumberFormat(t *testing.T) {
	for _, pn := range []string{"123", "12345678901", "12345abcde", ""} {
		payload := validPersonPayload()
		payload.PersonalNumber = pn

		err := validateNewCredentials(context.Background(), &stubUniq{}, payload)
		require.Error(t, err, "personal number %q", pn)
		var appErr *appErrors.Error
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, appErrors.ErrInvalidFormat.Code, appErr.Code)
	}
}

func TestValidateNewCredentialsPersonalNumberTaken(t *testing.T) {
	payload := validPersonPayload()
	uniq := &stubUniq{pns: map[string]bool{payload.PersonalNumber: true}}

	err := validateNewCredentials(context.Background(), uniq, payload)
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrPersonalNumber.Code, appErr.Code)
}

func TestValidateNewCredentialsExactEmailComparison(t *testing.T) {
	payload := validPersonPayload()
	payload.Email = "Ana@Example.com"
	// Only the lowercase variant is taken; the comparison is exact.
	uniq := &stubUniq{emails: map[string]bool{"ana@example.com": true}}

	err := validateNewCredentials(context.Background(), uniq, payload)
	assert.NoError(t, err)
}

func TestValidateNewCredentialsPasses(t *testing.T) {
	err := validateNewCredentials(context.Background(), &stubUniq{}, validPersonPayload())
	assert.NoError(t, err)
}
