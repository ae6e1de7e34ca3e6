package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/Tharoon321/worldpeace-api/models"
	"github.com/Tharoon321/worldpeace-api/payments"
	"github.com/Tharoon321/worldpeace-api/store"
	"github.com/Tharoon321/worldpeace-api/utils"
)

type sentMail struct {
	to, subject, body string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *fakeMailer) SendMail(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

func (m *fakeMailer) last() (sentMail, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return sentMail{}, false
	}
	return m.sent[len(m.sent)-1], true
}

type testEnv struct {
	store   *store.Memory
	settler *payments.Settler
	mailer  *fakeMailer
	router  *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logrus.New()
	log.SetOutput(io.Discard)

	mem := store.NewMemory()
	tokens, err := utils.NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)

	settler := payments.NewSettler(mem, payments.SimulatedProcessor{}, 20*time.Millisecond, nil, log)
	t.Cleanup(settler.Stop)

	mailer := &fakeMailer{}
	h := New(Deps{
		Store:   mem,
		Tokens:  tokens,
		Settler: settler,
		Mailer:  mailer,
		Log:     log,
		Options: Options{BcryptCost: bcrypt.MinCost, OTPTTL: 10 * time.Minute},
	})

	return &testEnv{
		store:   mem,
		settler: settler,
		mailer:  mailer,
		router:  NewRouter(h, RouterConfig{AllowedOrigin: "http://localhost:3000", Log: log}),
	}
}

func (e *testEnv) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	decode(t, rec, &body)
	return body.Error
}

type authResponse struct {
	Message string             `json:"message"`
	Token   string             `json:"token"`
	User    models.UserProfile `json:"user"`
}

// register signs up a user and returns its token and id.
func (e *testEnv) register(t *testing.T, name, email, country string) (string, primitive.ObjectID) {
	t.Helper()
	rec := e.do(http.MethodPost, "/api/auth/register", gin.H{
		"name":     name,
		"email":    email,
		"password": "secret123",
		"country":  country,
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp authResponse
	decode(t, rec, &resp)
	id, err := primitive.ObjectIDFromHex(resp.User.ID)
	require.NoError(t, err)
	return resp.Token, id
}

func (e *testEnv) registerAdmin(t *testing.T) string {
	t.Helper()
	token, id := e.register(t, "Admin", "admin@example.org", "Norway")
	require.NoError(t, e.store.SetRole(context.Background(), id, models.RoleAdmin))
	return token
}

type initiativeResponse struct {
	Message    string                `json:"message"`
	Initiative models.InitiativeView `json:"initiative"`
}

func (e *testEnv) createInitiative(t *testing.T, token, title, category string) models.InitiativeView {
	t.Helper()
	rec := e.do(http.MethodPost, "/api/initiatives", gin.H{
		"title":       title,
		"description": "Bringing people together",
		"category":    category,
		"location":    gin.H{"country": "Kenya", "city": "Nairobi"},
		"startDate":   "2026-03-01",
	}, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp initiativeResponse
	decode(t, rec, &resp)
	return resp.Initiative
}
