// Package repository contains data access logic separated from HTTP handlers.
// This file defines sentinel errors shared by the repositories so that
// handlers can translate failure scenarios into HTTP responses without
// inspecting driver errors.
package repository

import "errors"

// ErrEmailExists is returned when an insert violates the unique email
// constraint on the users table.  Handlers translate it into HTTP 409.
var ErrEmailExists = errors.New("email already exists")

// ErrContactNotFound is returned when a contact does not exist under the
// requesting owner.  A contact owned by a different user is reported with
// the same error so that handlers cannot leak existence across accounts.
// Handlers translate it into HTTP 404.
var ErrContactNotFound = errors.New("contact not found")
