package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/andriizhk/contact-api/internal/queue"
	"github.com/andriizhk/contact-api/internal/repository"
	queue_publisher "github.com/andriizhk/contact-api/internal/service"
	"github.com/andriizhk/contact-api/internal/utils"
)

// Pagination bounds carried over from the API contract: limit defaults to 10
// and must stay within [10, 500], offset must be non-negative.
const (
	defaultLimit = 10
	minLimit     = 10
	maxLimit     = 500
)

// ContactStore is the slice of ContactRepo the contact handlers depend on.
type ContactStore interface {
	List(ctx context.Context, ownerID uint64, limit, offset int) ([]repository.Contact, error)
	Search(ctx context.Context, ownerID uint64, f repository.ContactFilter, limit, offset int) ([]repository.Contact, error)
	GetByID(ctx context.Context, ownerID, id uint64) (repository.Contact, error)
	Create(ctx context.Context, ownerID uint64, in repository.ContactInput) (repository.Contact, error)
	Update(ctx context.Context, ownerID, id uint64, in repository.ContactInput) (repository.Contact, error)
	Delete(ctx context.Context, ownerID, id uint64) (repository.Contact, error)
	ByBirthdayLabels(ctx context.Context, ownerID uint64, labels []string) ([]repository.Contact, error)
}

// ContactHandler serves the per-user contact book.  Every operation is
// scoped to the owner resolved by the auth middleware; a contact that exists
// under another account is indistinguishable from one that does not exist.
type ContactHandler struct {
	Contacts ContactStore
	Publish  func(ctx context.Context, ev queue.ContactActivityEvent) error
}

func NewContactHandler(s ContactStore) *ContactHandler {
	return &ContactHandler{Contacts: s, Publish: queue_publisher.PublishContactActivity}
}

type contactReq struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Birthday  string `json:"birthday"`
	Addition  string `json:"addition"`
}

// List handles GET /api/contacts/.
func (h *ContactHandler) List(c echo.Context) error {
	owner, err := ownerID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"detail": "Not authenticated"})
	}
	limit, offset, err := pagination(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": err.Error()})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	contacts, err := h.Contacts.List(ctx, owner, limit, offset)
	if err != nil {
		log.Printf("contacts: list failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "Could not load contacts"})
	}
	return c.JSON(http.StatusOK, contacts)
}

// Search handles GET /api/contacts/search with exact-match filters on
// first_name, last_name and email.  Without filters it behaves like List.
func (h *ContactHandler) Search(c echo.Context) error {
	owner, err := ownerID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"detail": "Not authenticated"})
	}
	limit, offset, err := pagination(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": err.Error()})
	}
	filter := repository.ContactFilter{
		FirstName: c.QueryParam("first_name"),
		LastName:  c.QueryParam("last_name"),
		Email:     c.QueryParam("email"),
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	contacts, err := h.Contacts.Search(ctx, owner, filter, limit, offset)
	if err != nil {
		log.Printf("contacts: search failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "Could not load contacts"})
	}
	return c.JSON(http.StatusOK, contacts)
}

// NextBirthday handles GET /api/contacts/next_birthday?next_day=N.  It
// enumerates the month-day labels of the next N days starting today and
// returns the owner's contacts whose birthday falls on one of them; the
// stored year is ignored, so a window spanning New Year still matches.
func (h *ContactHandler) NextBirthday(c echo.Context) error {
	owner, err := ownerID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"detail": "Not authenticated"})
	}
	days := 7
	if raw := c.QueryParam("next_day"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 366 {
			return c.JSON(http.StatusBadRequest, echo.Map{"detail": "next_day must be between 1 and 366"})
		}
		days = n
	}
	labels := utils.BirthdayWindow(time.Now(), days)

	ctx, cancel := reqCtx(c)
	defer cancel()

	contacts, err := h.Contacts.ByBirthdayLabels(ctx, owner, labels)
	if err != nil {
		log.Printf("contacts: birthday lookup failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "Could not load contacts"})
	}
	return c.JSON(http.StatusOK, contacts)
}

// GetByID handles GET /api/contacts/:id.
func (h *ContactHandler) GetByID(c echo.Context) error {
	owner, err := ownerID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"detail": "Not authenticated"})
	}
	id, err := contactID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "Invalid contact id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	contact, err := h.Contacts.GetByID(ctx, owner, id)
	if err != nil {
		return contactErr(c, err)
	}
	return c.JSON(http.StatusOK, contact)
}

// Create handles POST /api/contacts/.
func (h *ContactHandler) Create(c echo.Context) error {
	owner, err := ownerID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"detail": "Not authenticated"})
	}
	in, err := bindContact(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": err.Error()})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	contact, err := h.Contacts.Create(ctx, owner, in)
	if err != nil {
		log.Printf("contacts: create failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "Could not create contact"})
	}
	h.publish(ctx, c, queue.ActionContactCreated, contact.ID)
	return c.JSON(http.StatusCreated, contact)
}

// Update handles PUT /api/contacts/:id with a full replace of the mutable
// fields.
func (h *ContactHandler) Update(c echo.Context) error {
	owner, err := ownerID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"detail": "Not authenticated"})
	}
	id, err := contactID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "Invalid contact id"})
	}
	in, err := bindContact(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": err.Error()})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	contact, err := h.Contacts.Update(ctx, owner, id, in)
	if err != nil {
		return contactErr(c, err)
	}
	h.publish(ctx, c, queue.ActionContactUpdated, contact.ID)
	return c.JSON(http.StatusOK, contact)
}

// Delete handles DELETE /api/contacts/:id.
func (h *ContactHandler) Delete(c echo.Context) error {
	owner, err := ownerID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"detail": "Not authenticated"})
	}
	id, err := contactID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "Invalid contact id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	contact, err := h.Contacts.Delete(ctx, owner, id)
	if err != nil {
		return contactErr(c, err)
	}
	h.publish(ctx, c, queue.ActionContactDeleted, contact.ID)
	return c.NoContent(http.StatusNoContent)
}

// ----- helpers -----

func (h *ContactHandler) publish(ctx context.Context, c echo.Context, action string, contactID uint64) {
	owner, _ := ownerID(c)
	email, _ := c.Get("email").(string)
	_ = h.Publish(ctx, queue.ContactActivityEvent{
		Action:     action,
		UserID:     owner,
		UserEmail:  email,
		ContactID:  contactID,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	})
}

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}

// ownerID extracts the authenticated user id placed on the context by the
// auth middleware.
func ownerID(c echo.Context) (uint64, error) {
	id, ok := c.Get("user_id").(uint64)
	if !ok || id == 0 {
		return 0, errors.New("no authenticated user")
	}
	return id, nil
}

func contactID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

func pagination(c echo.Context) (limit, offset int, err error) {
	limit = defaultLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, perr := strconv.Atoi(raw)
		if perr != nil || n < minLimit || n > maxLimit {
			return 0, 0, errors.New("limit must be between 10 and 500")
		}
		limit = n
	}
	if raw := c.QueryParam("offset"); raw != "" {
		n, perr := strconv.Atoi(raw)
		if perr != nil || n < 0 {
			return 0, 0, errors.New("offset must be non-negative")
		}
		offset = n
	}
	return limit, offset, nil
}

func bindContact(c echo.Context) (repository.ContactInput, error) {
	var req contactReq
	if err := c.Bind(&req); err != nil {
		return repository.ContactInput{}, errors.New("invalid body")
	}
	if req.FirstName == "" || req.LastName == "" || req.Email == "" {
		return repository.ContactInput{}, errors.New("first_name, last_name and email are required")
	}
	if req.Birthday != "" && !validBirthday(req.Birthday) {
		return repository.ContactInput{}, errors.New("birthday must be MM-DD or YYYY-MM-DD")
	}
	return repository.ContactInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Email:     req.Email,
		Birthday:  req.Birthday,
		Addition:  req.Addition,
	}, nil
}

// validBirthday accepts the two stored forms: bare month-day or a full ISO
// date.
func validBirthday(s string) bool {
	if _, err := time.Parse("01-02", s); err == nil {
		return true
	}
	if _, err := time.Parse("2006-01-02", s); err == nil {
		return true
	}
	return false
}

func contactErr(c echo.Context, err error) error {
	if errors.Is(err, repository.ErrContactNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"detail": "Contact not found"})
	}
	log.Printf("contacts: query failed: %v", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "Could not load contact"})
}
