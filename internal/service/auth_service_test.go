package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShadowCodeSoftware/E-sante/internal/domain"
	"github.com/ShadowCodeSoftware/E-sante/internal/seed"
)

func validRegistration() RegisterInput {
	return RegisterInput{
		Name:            "Alice Bernard",
		Email:           "alice@example.com",
		Password:        "secret1",
		ConfirmPassword: "secret1",
		Phone:           "0600000000",
	}
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	s := f.authService()

	profile, err := s.Register(ctx, validRegistration())
	require.NoError(t, err)
	assert.NotEmpty(t, profile.ID)
	assert.Equal(t, domain.RolePatient, profile.Role)

	users, err := f.repos.Users.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.NotEqual(t, "secret1", users[0].PasswordHash)

	session, err := s.Login(ctx, "ALICE@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "Bearer", session.TokenType)
	assert.Equal(t, profile.ID, session.User.ID)

	claims, err := s.Authenticate(session.Token)
	require.NoError(t, err)
	assert.Equal(t, profile.ID, claims.UserID)

	current, err := s.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, profile.Email, current.Email)

	raw, ok := f.backend.Raw(domain.KeyCurrentUser)
	require.True(t, ok)
	assert.NotContains(t, raw, "passwordHash")
}

func TestRegister_Validation(t *testing.T) {
	ctx := context.Background()
	s := newFixture(t, false).authService()

	tests := []struct {
		name  string
		edit  func(*RegisterInput)
		field string
	}{
		{"missing name", func(in *RegisterInput) { in.Name = " " }, "name"},
		{"missing email", func(in *RegisterInput) { in.Email = "" }, "email"},
		{"bad email", func(in *RegisterInput) { in.Email = "not-an-email" }, "email"},
		{"missing phone", func(in *RegisterInput) { in.Phone = "" }, "phone"},
		{"short password", func(in *RegisterInput) { in.Password, in.ConfirmPassword = "abc", "abc" }, "password"},
		{"mismatch", func(in *RegisterInput) { in.ConfirmPassword = "other12" }, "confirmPassword"},
		{"bad role", func(in *RegisterInput) { in.Role = "nurse" }, "role"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validRegistration()
			tt.edit(&in)
			_, err := s.Register(ctx, in)
			require.ErrorIs(t, err, domain.ErrValidation)
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	s := newFixture(t, true).authService()

	in := validRegistration()
	in.Email = " Admin@Esante.com "
	_, err := s.Register(ctx, in)
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)
}

func TestLogin_SeededAccounts(t *testing.T) {
	ctx := context.Background()
	s := newFixture(t, true).authService()

	session, err := s.Login(ctx, seed.DoctorEmail, seed.DoctorPassword)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleDoctor, session.User.Role)

	_, err = s.Login(ctx, seed.DoctorEmail, "wrong")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = s.Login(ctx, "nobody@esante.com", "whatever")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = s.Login(ctx, "", "")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestLogout_ClearsSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	s := f.authService()

	_, err := s.Login(ctx, seed.PatientEmail, seed.PatientPassword)
	require.NoError(t, err)

	require.NoError(t, s.Logout(ctx))
	_, err = s.CurrentUser(ctx)
	assert.ErrorIs(t, err, domain.ErrNoSession)
	_, ok := f.backend.Raw(domain.KeyUserToken)
	assert.False(t, ok)
}

func TestUpdateProfile_RefreshesSession(t *testing.T) {
	ctx := context.Background()
	s := newFixture(t, true).authService()

	session, err := s.Login(ctx, seed.DoctorEmail, seed.DoctorPassword)
	require.NoError(t, err)

	name := "Dr. Martin Dubois-Leroy"
	profile, err := s.UpdateProfile(ctx, session.User.ID, ProfileUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, profile.Name)
	assert.Equal(t, seed.DoctorEmail, profile.Email)

	current, err := s.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, name, current.Name)

	taken := seed.PatientEmail
	_, err = s.UpdateProfile(ctx, session.User.ID, ProfileUpdate{Email: &taken})
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)

	blank := ""
	_, err = s.UpdateProfile(ctx, session.User.ID, ProfileUpdate{Phone: &blank})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = s.UpdateProfile(ctx, "missing", ProfileUpdate{Name: &name})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	s := newFixture(t, true).authService()

	err := s.ChangePassword(ctx, "1", "wrong", "newpass", "newpass")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	err = s.ChangePassword(ctx, "1", seed.DoctorPassword, "newpass", "other")
	assert.ErrorIs(t, err, domain.ErrValidation)

	require.NoError(t, s.ChangePassword(ctx, "1", seed.DoctorPassword, "newpass", "newpass"))

	_, err = s.Login(ctx, seed.DoctorEmail, seed.DoctorPassword)
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = s.Login(ctx, seed.DoctorEmail, "newpass")
	assert.NoError(t, err)
}

func TestResetPassword(t *testing.T) {
	ctx := context.Background()
	s := newFixture(t, true).authService()

	require.NoError(t, s.ResetPassword(ctx, seed.PatientEmail, "fresh123"))
	_, err := s.Login(ctx, seed.PatientEmail, "fresh123")
	assert.NoError(t, err)

	assert.ErrorIs(t, s.ResetPassword(ctx, "nobody@esante.com", "fresh123"), domain.ErrNotFound)
}
