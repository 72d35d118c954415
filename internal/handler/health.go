package handler // declare the package name; contains HTTP handlers

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/andriizhk/contact-api/internal/database"
)

// HealthHandler exposes the welcome endpoint and a database liveness probe.
type HealthHandler struct {
	DB *sql.DB
}

func NewHealthHandler(db *sql.DB) *HealthHandler { return &HealthHandler{DB: db} }

// Index returns a fixed welcome message at GET /.
func (h *HealthHandler) Index(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"message": "Welcome to the contact book API"})
}

// Check runs SELECT 1 against the datastore.  Load balancers and monitoring
// use it to verify the service end to end.  Failures are logged with detail
// but reported to the caller with a generic message.
func (h *HealthHandler) Check(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := database.Probe(ctx, h.DB); err != nil {
		log.Printf("healthchecker: probe failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "Error connecting to the database"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Healthchecker OK"})
}
