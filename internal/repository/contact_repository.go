// This file defines the Contact model and repository methods for CRUD,
// exact-match search and the birthday window lookup.  Every query filters by
// the owning user id; ownership is a mandatory parameter rather than implicit
// context so the scoping rule stays visible at each call site.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

// Contact represents a row in the 'contacts' table.  Phone, Birthday and
// Addition are optional columns; Birthday is stored as text, either a full
// ISO date (YYYY-MM-DD) or just MM-DD.
type Contact struct {
	ID        uint64 `json:"id"`
	OwnerID   uint64 `json:"-"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone,omitempty"`
	Email     string `json:"email"`
	Birthday  string `json:"birthday,omitempty"`
	Addition  string `json:"addition,omitempty"`
}

// ContactInput carries the mutable fields for create and update.  Update is
// a full replace: every field is written, empty optional fields clear the
// column.
type ContactInput struct {
	FirstName string
	LastName  string
	Phone     string
	Email     string
	Birthday  string
	Addition  string
}

// ContactFilter restricts Search to exact matches on the allowed fields.
// Empty fields are unconstrained.
type ContactFilter struct {
	FirstName string
	LastName  string
	Email     string
}

const contactCols = "id, user_id, first_name, last_name, phone, email, birthday, addition"

type ContactRepo struct{ db *sql.DB }

func NewContactRepo(db *sql.DB) *ContactRepo { return &ContactRepo{db: db} }

// List returns the owner's contacts ordered by id with pagination.
func (r *ContactRepo) List(ctx context.Context, ownerID uint64, limit, offset int) ([]Contact, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+contactCols+" FROM contacts WHERE user_id=? ORDER BY id LIMIT ? OFFSET ?",
		ownerID, limit, offset)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

// Search returns the owner's contacts matching every set filter field
// exactly, with the same pagination as List.  With an empty filter it is
// equivalent to List.
func (r *ContactRepo) Search(ctx context.Context, ownerID uint64, f ContactFilter, limit, offset int) ([]Contact, error) {
	where := []string{"user_id = ?"}
	args := []any{ownerID}

	if f.FirstName != "" {
		where = append(where, "first_name = ?")
		args = append(args, f.FirstName)
	}
	if f.LastName != "" {
		where = append(where, "last_name = ?")
		args = append(args, f.LastName)
	}
	if f.Email != "" {
		where = append(where, "email = ?")
		args = append(args, f.Email)
	}

	q := "SELECT " + contactCols + " FROM contacts WHERE " + strings.Join(where, " AND ") +
		" ORDER BY id LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

// GetByID fetches one contact.  ErrContactNotFound covers both a missing id
// and an id owned by another user.
func (r *ContactRepo) GetByID(ctx context.Context, ownerID, id uint64) (Contact, error) {
	return r.scanOne(r.db.QueryRowContext(ctx,
		"SELECT "+contactCols+" FROM contacts WHERE id=? AND user_id=? LIMIT 1",
		id, ownerID))
}

// Create inserts a contact for the owner and returns it with the generated id.
func (r *ContactRepo) Create(ctx context.Context, ownerID uint64, in ContactInput) (Contact, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO contacts (user_id, first_name, last_name, phone, email, birthday, addition) VALUES (?,?,?,?,?,?,?)",
		ownerID, in.FirstName, in.LastName, nullable(in.Phone), in.Email, nullable(in.Birthday), nullable(in.Addition))
	if err != nil {
		return Contact{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Contact{}, err
	}
	return Contact{
		ID:        uint64(id),
		OwnerID:   ownerID,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Phone:     in.Phone,
		Email:     in.Email,
		Birthday:  in.Birthday,
		Addition:  in.Addition,
	}, nil
}

// Update replaces the mutable fields of the owner's contact and returns the
// updated record, or ErrContactNotFound when no such contact exists for the
// owner.
func (r *ContactRepo) Update(ctx context.Context, ownerID, id uint64, in ContactInput) (Contact, error) {
	if _, err := r.GetByID(ctx, ownerID, id); err != nil {
		return Contact{}, err
	}
	_, err := r.db.ExecContext(ctx,
		"UPDATE contacts SET first_name=?, last_name=?, phone=?, email=?, birthday=?, addition=? WHERE id=? AND user_id=?",
		in.FirstName, in.LastName, nullable(in.Phone), in.Email, nullable(in.Birthday), nullable(in.Addition), id, ownerID)
	if err != nil {
		return Contact{}, err
	}
	return r.GetByID(ctx, ownerID, id)
}

// Delete removes the owner's contact and returns the deleted record, or
// ErrContactNotFound when it is absent.
func (r *ContactRepo) Delete(ctx context.Context, ownerID, id uint64) (Contact, error) {
	c, err := r.GetByID(ctx, ownerID, id)
	if err != nil {
		return Contact{}, err
	}
	if _, err := r.db.ExecContext(ctx,
		"DELETE FROM contacts WHERE id=? AND user_id=?", id, ownerID); err != nil {
		return Contact{}, err
	}
	return c, nil
}

// ByBirthdayLabels returns the owner's contacts whose birthday month-day
// component matches one of the given MM-DD labels.  RIGHT(birthday, 5) yields
// the month-day part for both stored forms (MM-DD and YYYY-MM-DD), so the
// year never participates in the comparison.
func (r *ContactRepo) ByBirthdayLabels(ctx context.Context, ownerID uint64, labels []string) ([]Contact, error) {
	if len(labels) == 0 {
		return []Contact{}, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(labels)), ",")
	args := make([]any, 0, len(labels)+1)
	args = append(args, ownerID)
	for _, l := range labels {
		args = append(args, l)
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+contactCols+" FROM contacts WHERE user_id=? AND birthday IS NOT NULL AND RIGHT(birthday, 5) IN ("+placeholders+") ORDER BY id",
		args...)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func (r *ContactRepo) scanOne(row *sql.Row) (Contact, error) {
	var (
		c        Contact
		phone    sql.NullString
		birthday sql.NullString
		addition sql.NullString
	)
	err := row.Scan(&c.ID, &c.OwnerID, &c.FirstName, &c.LastName, &phone, &c.Email, &birthday, &addition)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Contact{}, ErrContactNotFound
		}
		return Contact{}, err
	}
	c.Phone = phone.String
	c.Birthday = birthday.String
	c.Addition = addition.String
	return c, nil
}

func collect(rows *sql.Rows) ([]Contact, error) {
	defer rows.Close()
	out := []Contact{}
	for rows.Next() {
		var (
			c        Contact
			phone    sql.NullString
			birthday sql.NullString
			addition sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.FirstName, &c.LastName, &phone, &c.Email, &birthday, &addition); err != nil {
			return nil, err
		}
		c.Phone = phone.String
		c.Birthday = birthday.String
		c.Addition = addition.String
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// nullable maps an empty optional field to SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
