package transport

import (
	"fmt"

	"github.com/pkg/errors"
)

// Category is the coarse kind of a transport failure. It is the only detail
// a failure exposes through Error(); the underlying cause is kept for logs.
type Category string

const (
	CategoryRequest Category = "request"
	CategoryNetwork Category = "network"
	CategoryTimeout Category = "timeout"
	CategoryStatus  Category = "status"
	CategoryDecode  Category = "decode"
)

// Error is returned by Client.Send for every failed exchange.
type Error struct {
	Category   Category
	StatusCode int
	cause      error
}

func newError(category Category, cause error) *Error {
	return &Error{Category: category, cause: cause}
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Category == CategoryStatus && e.StatusCode != 0 {
		return fmt.Sprintf("transport %s error (HTTP %d)", e.Category, e.StatusCode)
	}
	return fmt.Sprintf("transport %s error", e.Category)
}

func (e *Error) Unwrap() error { return e.cause }

// ErrorCategory lets the widget tag failure events without importing this package.
func (e *Error) ErrorCategory() string { return string(e.Category) }

// CategoryOf returns the category of a transport error, or "" for other errors.
func CategoryOf(err error) Category {
	var te *Error
	if errors.As(err, &te) && te != nil {
		return te.Category
	}
	return ""
}
