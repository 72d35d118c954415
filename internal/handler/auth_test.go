package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/andriizhk/contact-api/internal/config"
	"github.com/andriizhk/contact-api/internal/queue"
	"github.com/andriizhk/contact-api/internal/repository"
	"github.com/andriizhk/contact-api/internal/utils"
)

// mockUserStore is an in-memory UserStore for handler tests.
type mockUserStore struct {
	users  map[string]*repository.User // email -> user
	nextID uint64
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{users: map[string]*repository.User{}}
}

func (m *mockUserStore) GetByEmail(_ context.Context, email string) (repository.User, error) {
	u, ok := m.users[email]
	if !ok {
		return repository.User{}, sql.ErrNoRows
	}
	return *u, nil
}

func (m *mockUserStore) Create(_ context.Context, username, email, passwordHash, avatar string) (repository.User, error) {
	if _, exists := m.users[email]; exists {
		return repository.User{}, repository.ErrEmailExists
	}
	m.nextID++
	u := &repository.User{
		ID:           m.nextID,
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Avatar:       avatar,
		Role:         repository.RoleUser,
	}
	m.users[email] = u
	return *u, nil
}

func (m *mockUserStore) UpdateRefreshToken(_ context.Context, userID uint64, token *string) error {
	for _, u := range m.users {
		if u.ID == userID {
			u.RefreshToken = token
			return nil
		}
	}
	return sql.ErrNoRows
}

func testConfig() config.Config {
	return config.Config{
		JWTSecret:      "test-secret",
		JWTIssuer:      "contact-api",
		AccessTTLMin:   15,
		RefreshTTLDays: 7,
		BcryptCost:     bcrypt.MinCost,
	}
}

func newTestAuthHandler(store *mockUserStore) *AuthHandler {
	return &AuthHandler{
		Cfg:     testConfig(),
		Users:   store,
		Avatar:  func(context.Context, string) string { return "" },
		Publish: func(context.Context, queue.ContactActivityEvent) error { return nil },
	}
}

func seedUser(t *testing.T, store *mockUserStore, email, password string) repository.User {
	t.Helper()
	hash, err := utils.HashPassword(password, bcrypt.MinCost)
	require.NoError(t, err)
	u, err := store.Create(context.Background(), "seeded", email, hash, "")
	require.NoError(t, err)
	return u
}

func jsonRequest(method, target string, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func formRequest(target string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return req
}

func TestSignup(t *testing.T) {
	e := echo.New()
	store := newMockUserStore()
	h := newTestAuthHandler(store)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/auth/signup",
		`{"username":"ada","email":"ada@x.com","password":"s3cret"}`), rec)
	require.NoError(t, h.Signup(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ada", body["username"])
	assert.Equal(t, "ada@x.com", body["email"])
	assert.NotContains(t, body, "password")

	// The user is retrievable by email and the stored password is hashed.
	u, err := store.GetByEmail(context.Background(), "ada@x.com")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", u.PasswordHash)
	assert.True(t, utils.VerifyPassword(u.PasswordHash, "s3cret"))
}

func TestSignup_Conflict(t *testing.T) {
	e := echo.New()
	store := newMockUserStore()
	seedUser(t, store, "ada@x.com", "whatever")
	h := newTestAuthHandler(store)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/auth/signup",
		`{"username":"someone-else","email":"ada@x.com","password":"different"}`), rec)
	require.NoError(t, h.Signup(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "Account already exists")
}

func TestLogin(t *testing.T) {
	e := echo.New()
	store := newMockUserStore()
	seedUser(t, store, "ada@x.com", "s3cret")
	h := newTestAuthHandler(store)

	tests := []struct {
		name     string
		username string
		password string
		wantCode int
	}{
		{name: "unknown email", username: "nobody@x.com", password: "s3cret", wantCode: http.StatusUnauthorized},
		{name: "wrong password", username: "ada@x.com", password: "wrong", wantCode: http.StatusUnauthorized},
		{name: "success", username: "ada@x.com", password: "s3cret", wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c := e.NewContext(formRequest("/api/auth/login", url.Values{
				"username": {tt.username},
				"password": {tt.password},
			}), rec)
			require.NoError(t, h.Login(c))
			require.Equal(t, tt.wantCode, rec.Code)

			if tt.wantCode == http.StatusUnauthorized {
				// Missing account and bad password are indistinguishable.
				assert.Contains(t, rec.Body.String(), "Invalid credentials")
				return
			}
			var body tokenResp
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body.AccessToken)
			assert.NotEmpty(t, body.RefreshToken)
			assert.Equal(t, "bearer", body.TokenType)

			u, err := store.GetByEmail(context.Background(), "ada@x.com")
			require.NoError(t, err)
			require.NotNil(t, u.RefreshToken)
			assert.Equal(t, body.RefreshToken, *u.RefreshToken)
		})
	}
}

func refreshRequest(token string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh_token", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestRefresh_Rotation(t *testing.T) {
	e := echo.New()
	store := newMockUserStore()
	u := seedUser(t, store, "ada@x.com", "s3cret")
	h := newTestAuthHandler(store)

	old, err := utils.NewRefreshToken(h.Cfg.JWTSecret, h.Cfg.JWTIssuer, u.Email, h.Cfg.RefreshTTLDays)
	require.NoError(t, err)
	require.NoError(t, store.UpdateRefreshToken(context.Background(), u.ID, &old))

	rec := httptest.NewRecorder()
	require.NoError(t, h.Refresh(e.NewContext(refreshRequest(old), rec)))
	require.Equal(t, http.StatusOK, rec.Code)

	var body tokenResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEqual(t, old, body.RefreshToken)

	stored, err := store.GetByEmail(context.Background(), "ada@x.com")
	require.NoError(t, err)
	require.NotNil(t, stored.RefreshToken)
	assert.Equal(t, body.RefreshToken, *stored.RefreshToken)

	// The replaced token no longer matches the slot.
	rec = httptest.NewRecorder()
	require.NoError(t, h.Refresh(e.NewContext(refreshRequest(old), rec)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefresh_MismatchRevokesStoredToken(t *testing.T) {
	e := echo.New()
	store := newMockUserStore()
	u := seedUser(t, store, "ada@x.com", "s3cret")
	h := newTestAuthHandler(store)

	stored, err := utils.NewRefreshToken(h.Cfg.JWTSecret, h.Cfg.JWTIssuer, u.Email, h.Cfg.RefreshTTLDays)
	require.NoError(t, err)
	require.NoError(t, store.UpdateRefreshToken(context.Background(), u.ID, &stored))

	// A second, validly signed token that is not the stored one looks like
	// replay: the slot must be cleared so every outstanding token dies.
	other, err := utils.NewRefreshToken(h.Cfg.JWTSecret, h.Cfg.JWTIssuer, u.Email, h.Cfg.RefreshTTLDays)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	require.NoError(t, h.Refresh(e.NewContext(refreshRequest(other), rec)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	after, err := store.GetByEmail(context.Background(), "ada@x.com")
	require.NoError(t, err)
	assert.Nil(t, after.RefreshToken)

	// The previously stored token is dead too.
	rec = httptest.NewRecorder()
	require.NoError(t, h.Refresh(e.NewContext(refreshRequest(stored), rec)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefresh_RejectsBadTokens(t *testing.T) {
	e := echo.New()
	store := newMockUserStore()
	u := seedUser(t, store, "ada@x.com", "s3cret")
	h := newTestAuthHandler(store)

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, h.Cfg.JWTIssuer, u.Email, h.Cfg.AccessTTLMin)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not.a.jwt"},
		{name: "access token in place of refresh", token: access},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			require.NoError(t, h.Refresh(e.NewContext(refreshRequest(tt.token), rec)))
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}
