package catalog

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// ErrNotConfigured indicates that the catalog backend dependency has not been wired.
	ErrNotConfigured = errors.New("catalog service not configured")
	// ErrUnauthenticated is returned when the backend rejects the admin session check.
	ErrUnauthenticated = errors.New("catalog: admin session not authenticated")
	// ErrNotFound matches backend 404 responses and unknown ids in the in-memory service.
	ErrNotFound = errors.New("catalog: not found")
)

// Service exposes the catalog REST backend consumed by the admin and shop front ends.
type Service interface {
	// CheckSession verifies that creds belong to an active admin session.
	CheckSession(ctx context.Context, creds Credentials) error
	// ListCategories fetches the full category list.
	ListCategories(ctx context.Context, creds Credentials) ([]Category, error)
	// ListProducts fetches the full product list.
	ListProducts(ctx context.Context, creds Credentials) ([]Product, error)
	// SaveCategory creates the category when in.ID is zero and updates it otherwise.
	SaveCategory(ctx context.Context, creds Credentials, in CategoryInput) error
	// DeleteCategory removes a category.
	DeleteCategory(ctx context.Context, creds Credentials, id int64) error
	// SaveProduct creates the product when in.ID is zero and updates it otherwise.
	SaveProduct(ctx context.Context, creds Credentials, in ProductInput) error
	// DeleteProduct removes a product.
	DeleteProduct(ctx context.Context, creds Credentials, id int64) error
	// Logout terminates the admin session and returns the cookies the backend set in response.
	Logout(ctx context.Context, creds Credentials) ([]*http.Cookie, error)
}

// APIError is a non-2xx response from the backend.
type APIError struct {
	Status int
	// Message is the backend-provided `error` field, empty when the body carried none.
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("catalog: backend error (%d): %s", e.Status, e.DisplayMessage())
}

// DisplayMessage returns the backend message or an HTTP-status-derived fallback.
func (e *APIError) DisplayMessage() string {
	if msg := strings.TrimSpace(e.Message); msg != "" {
		return msg
	}
	return fmt.Sprintf("HTTP %d", e.Status)
}

// Is lets errors.Is match ErrNotFound and ErrUnauthenticated against status codes.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrUnauthenticated:
		return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
	}
	return false
}

var messagePolicy = bluemonday.StrictPolicy()

// UserMessage extracts a message that can be shown to the user from a backend error. Markup is
// stripped and the result is plain text. The second return value is false for transport
// failures, which carry no user-facing text.
func UserMessage(err error) (string, bool) {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return "", false
	}
	msg := strings.TrimSpace(html.UnescapeString(messagePolicy.Sanitize(apiErr.DisplayMessage())))
	if msg == "" {
		msg = fmt.Sprintf("HTTP %d", apiErr.Status)
	}
	return msg, true
}
