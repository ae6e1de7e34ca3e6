package controllers

import (
	"context"
	"net/http"
	"regexp"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tharoon321/worldpeace-api/models"
)

func TestRegister(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/auth/register", gin.H{
		"name":      "Amina",
		"email":     "Amina@Example.org",
		"password":  "secret123",
		"country":   "Kenya",
		"interests": []string{"education", "dialogue"},
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp authResponse
	decode(t, rec, &resp)
	assert.Equal(t, "User registered successfully", resp.Message)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "amina@example.org", resp.User.Email)
	assert.Equal(t, models.RoleUser, resp.User.Role)
	assert.Equal(t, []string{"education", "dialogue"}, resp.User.Interests)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "Amina", "amina@example.org", "Kenya")

	rec := env.do(http.MethodPost, "/api/auth/register", gin.H{
		"name":     "Someone Else",
		"email":    "AMINA@example.org",
		"password": "another1",
		"country":  "Peru",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "User already exists", errorOf(t, rec))
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body gin.H
		want string
	}{
		{
			name: "short password",
			body: gin.H{"name": "Amina", "email": "a@example.org", "password": "123", "country": "Kenya"},
			want: "password must be at least 6 characters",
		},
		{
			name: "bad email",
			body: gin.H{"name": "Amina", "email": "not-an-email", "password": "secret123", "country": "Kenya"},
			want: "Invalid email address",
		},
		{
			name: "missing country",
			body: gin.H{"name": "Amina", "email": "a@example.org", "password": "secret123"},
			want: "country is required",
		},
		{
			name: "unknown interest",
			body: gin.H{"name": "Amina", "email": "a@example.org", "password": "secret123", "country": "Kenya", "interests": []string{"sports"}},
			want: "interests[0] must be one of: education, dialogue, environment, humanitarian, cultural, justice",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodPost, "/api/auth/register", tt.body, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.want, errorOf(t, rec))
		})
	}
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "Amina", "amina@example.org", "Kenya")

	rec := env.do(http.MethodPost, "/api/auth/login", gin.H{"email": "amina@example.org", "password": "wrong-pass"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid credentials", errorOf(t, rec))

	rec = env.do(http.MethodPost, "/api/auth/login", gin.H{"email": "nobody@example.org", "password": "secret123"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(http.MethodPost, "/api/auth/login", gin.H{"email": "amina@example.org"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPost, "/api/auth/login", gin.H{"email": "amina@example.org", "password": "secret123"}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp authResponse
	decode(t, rec, &resp)
	assert.Equal(t, "Login successful", resp.Message)
	assert.NotEmpty(t, resp.Token)

	user, err := env.store.UserByEmail(context.Background(), "amina@example.org")
	require.NoError(t, err)
	assert.NotNil(t, user.LastLogin)
}

func TestMe(t *testing.T) {
	env := newTestEnv(t)
	token, id := env.register(t, "Amina", "amina@example.org", "Kenya")

	rec := env.do(http.MethodGet, "/api/auth/me", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		User models.UserProfile `json:"user"`
	}
	decode(t, rec, &resp)
	assert.Equal(t, id.Hex(), resp.User.ID)
	assert.NotNil(t, resp.User.JoinedAt)

	rec = env.do(http.MethodGet, "/api/auth/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Access token required", errorOf(t, rec))

	rec = env.do(http.MethodGet, "/api/auth/me", nil, "garbage")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

var otpPattern = regexp.MustCompile(`Your OTP is: (\d{6})`)

func TestForgotAndResetPassword(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "Amina", "amina@example.org", "Kenya")

	rec := env.do(http.MethodPost, "/api/auth/forgot-password", gin.H{"email": "nobody@example.org"}, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	_, sent := env.mailer.last()
	assert.False(t, sent, "no mail for unknown address")

	rec = env.do(http.MethodPost, "/api/auth/forgot-password", gin.H{"email": "amina@example.org"}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	mail, ok := env.mailer.last()
	require.True(t, ok)
	assert.Equal(t, "amina@example.org", mail.to)
	m := otpPattern.FindStringSubmatch(mail.body)
	require.Len(t, m, 2)
	otp := m[1]

	wrong := "000000"
	if otp == wrong {
		wrong = "111111"
	}
	rec = env.do(http.MethodPost, "/api/auth/reset-password", gin.H{
		"email": "amina@example.org", "otp": wrong, "newPassword": "brand-new",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid OTP", errorOf(t, rec))

	rec = env.do(http.MethodPost, "/api/auth/reset-password", gin.H{
		"email": "amina@example.org", "otp": otp, "newPassword": "brand-new",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(http.MethodPost, "/api/auth/login", gin.H{"email": "amina@example.org", "password": "brand-new"}, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	// the code is single use
	rec = env.do(http.MethodPost, "/api/auth/reset-password", gin.H{
		"email": "amina@example.org", "otp": otp, "newPassword": "again-new",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid or expired OTP", errorOf(t, rec))
}
