package handler

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/andriizhk/contact-api/internal/config"
	"github.com/andriizhk/contact-api/internal/queue"
	"github.com/andriizhk/contact-api/internal/repository"
	queue_publisher "github.com/andriizhk/contact-api/internal/service"
	"github.com/andriizhk/contact-api/internal/utils"
)

// UserStore is the slice of UserRepo the auth handlers depend on.  Tests
// substitute an in-memory implementation.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (repository.User, error)
	Create(ctx context.Context, username, email, passwordHash, avatar string) (repository.User, error)
	UpdateRefreshToken(ctx context.Context, userID uint64, token *string) error
}

// AuthHandler bundles dependencies for auth endpoints.  Avatar is the
// best-effort avatar lookup used at signup; it defaults to the Gravatar
// fetch and is a field so tests can avoid the network call.
type AuthHandler struct {
	Cfg     config.Config
	Users   UserStore
	Avatar  func(ctx context.Context, email string) string
	Publish func(ctx context.Context, ev queue.ContactActivityEvent) error
}

func NewAuthHandler(cfg config.Config, u UserStore) *AuthHandler {
	return &AuthHandler{
		Cfg:     cfg,
		Users:   u,
		Avatar:  utils.FetchGravatar,
		Publish: queue_publisher.PublishContactActivity,
	}
}

// ----- DTOs -----

type signupReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResp struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Avatar   string `json:"avatar,omitempty"`
	Role     string `json:"role"`
}

type tokenResp struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// Signup creates a new account and returns the public profile.  The password
// hash never leaves the server.  The avatar lookup is optional enrichment:
// when Gravatar is unreachable the account is simply created without one.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "Invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "username, email and password are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Users.GetByEmail(ctx, req.Email); err == nil {
		return c.JSON(http.StatusConflict, echo.Map{"detail": "Account already exists"})
	} else if !errors.Is(err, sql.ErrNoRows) {
		log.Printf("signup: lookup failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "Could not create account"})
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "Could not create account"})
	}

	avatar := h.Avatar(ctx, req.Email)

	u, err := h.Users.Create(ctx, req.Username, req.Email, hash, avatar)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"detail": "Account already exists"})
		}
		log.Printf("signup: create failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "Could not create account"})
	}

	_ = h.Publish(ctx, queue.ContactActivityEvent{
		Action:     queue.ActionSignup,
		UserID:     u.ID,
		UserEmail:  u.Email,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusCreated, userResp{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Avatar:   u.Avatar,
		Role:     u.Role,
	})
}

// Login verifies form-encoded credentials and returns a fresh token pair.
// A missing account and a wrong password produce the same response so the
// endpoint cannot be used to enumerate users; the distinction is only logged.
func (h *AuthHandler) Login(c echo.Context) error {
	email := strings.ToLower(strings.TrimSpace(c.FormValue("username")))
	password := c.FormValue("password")
	if email == "" || password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "username and password are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Printf("login: no account for %s", email)
			return c.JSON(http.StatusUnauthorized, echo.Map{"detail": "Invalid credentials"})
		}
		log.Printf("login: lookup failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "Login failed"})
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		log.Printf("login: password mismatch for %s", email)
		return c.JSON(http.StatusUnauthorized, echo.Map{"detail": "Invalid credentials"})
	}

	return h.issuePair(ctx, c, u)
}

// Refresh exchanges a bearer refresh token for a new token pair, rotating
// the stored token.  A valid token that does not match the user's current
// slot is treated as replay: the slot is cleared so every outstanding
// refresh token dies and the user must log in again.
func (h *AuthHandler) Refresh(c echo.Context) error {
	auth := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return c.JSON(http.StatusUnauthorized, echo.Map{"detail": "Not authenticated"})
	}
	raw := strings.TrimPrefix(auth, "Bearer ")

	email, err := utils.DecodeRefreshToken(h.Cfg.JWTSecret, h.Cfg.JWTIssuer, raw)
	if err != nil {
		log.Printf("refresh: decode failed: %v", err)
		return c.JSON(http.StatusUnauthorized, echo.Map{"detail": "Could not validate credentials"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, email)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"detail": "Could not validate credentials"})
	}
	if u.RefreshToken == nil || *u.RefreshToken != raw {
		// Replayed or superseded token: force re-login.
		if err := h.Users.UpdateRefreshToken(ctx, u.ID, nil); err != nil {
			log.Printf("refresh: clearing token failed: %v", err)
		}
		return c.JSON(http.StatusUnauthorized, echo.Map{"detail": "Invalid refresh token"})
	}

	return h.issuePair(ctx, c, u)
}

// issuePair issues an access+refresh pair, persists the refresh token on the
// user (last token wins) and writes the token response.
func (h *AuthHandler) issuePair(ctx context.Context, c echo.Context, u repository.User) error {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, h.Cfg.JWTIssuer, u.Email, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "Could not issue token"})
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.JWTSecret, h.Cfg.JWTIssuer, u.Email, h.Cfg.RefreshTTLDays)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "Could not issue token"})
	}
	if err := h.Users.UpdateRefreshToken(ctx, u.ID, &refresh); err != nil {
		log.Printf("auth: persisting refresh token failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "Could not issue token"})
	}
	return c.JSON(http.StatusOK, tokenResp{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
	})
}
