package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/andriizhk/contact-api/internal/config"
	"github.com/andriizhk/contact-api/internal/handler"
	"github.com/andriizhk/contact-api/internal/middleware"
	"github.com/andriizhk/contact-api/internal/repository"
)

// RegisterRoutes wires every endpoint of the API onto the provided Echo
// instance.
//
// Public surface: the welcome page, the database healthchecker and the three
// auth endpoints.  The auth group carries the Redis token bucket so that
// login and signup cannot be hammered.
//
// The contact endpoints require a valid access token (JWTAuth re-resolves
// the subject against the user directory on every request) and one of the
// known roles.  GET responses can be cached per user when caching is
// enabled.
func RegisterRoutes(e *echo.Echo, cfg config.Config, users *repository.UserRepo,
	auth *handler.AuthHandler, contacts *handler.ContactHandler,
	health *handler.HealthHandler, rdb *redis.Client) {

	e.GET("/", health.Index)
	e.GET("/api/healthchecker", health.Check)

	a := e.Group("/api/auth")
	a.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	a.POST("/signup", auth.Signup)
	a.POST("/login", auth.Login)
	a.POST("/refresh_token", auth.Refresh)

	g := e.Group("/api/contacts")
	g.Use(middleware.JWTAuth(cfg.JWTSecret, cfg.JWTIssuer, users))
	g.Use(middleware.RequireRole(repository.RoleAdmin, repository.RoleModerator, repository.RoleUser))
	g.Use(middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	g.GET("/", contacts.List)
	g.GET("/search", contacts.Search)
	g.GET("/next_birthday", contacts.NextBirthday)
	g.GET("/:id", contacts.GetByID)
	g.POST("/", contacts.Create)
	g.PUT("/:id", contacts.Update)
	g.DELETE("/:id", contacts.Delete)
}
