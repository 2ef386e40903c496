package apperror

import (
	"errors"
	"fmt"
	"testing"
)

// TestErrorsIs checks every constructor against every sentinel so a kind can
// never accidentally match another one.
func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("recipe", 7),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("title", "title is required"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "Conflict wraps ErrConflict",
			err:       Conflict("user", "a@x.com"),
			target:    ErrConflict,
			wantMatch: true,
		},
		{
			name:      "Forbidden wraps ErrForbidden",
			err:       Forbidden("not the owner"),
			target:    ErrForbidden,
			wantMatch: true,
		},
		{
			name:      "Unauthenticated wraps ErrUnauthenticated",
			err:       Unauthenticated("token expired"),
			target:    ErrUnauthenticated,
			wantMatch: true,
		},
		{
			name:      "NotFound does NOT match ErrValidation",
			err:       NotFound("recipe", 7),
			target:    ErrValidation,
			wantMatch: false,
		},
		{
			name:      "Forbidden does NOT match ErrUnauthenticated",
			err:       Forbidden("not the owner"),
			target:    ErrUnauthenticated,
			wantMatch: false,
		},
		{
			name:      "wrapped Conflict still matches",
			err:       fmt.Errorf("sqlite: inserting user: %w", Conflict("user", "a@x.com")),
			target:    ErrConflict,
			wantMatch: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errors.Is(tt.err, tt.target)
			if got != tt.wantMatch {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.wantMatch)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		err         *AppError
		wantMessage string
	}{
		{
			name:        "NotFound message includes resource and id",
			err:         NotFound("ingredient", int64(42)),
			wantMessage: "ingredient not found with id 42",
		},
		{
			name:        "ValidationFailed uses custom message",
			err:         ValidationFailed("servings", "servings must be positive"),
			wantMessage: "servings must be positive",
		},
		{
			name:        "Conflict message includes resource and key",
			err:         Conflict("ingredient", "Salt"),
			wantMessage: "ingredient already exists: Salt",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMessage {
				t.Errorf("Error() = %q, want %q", got, tt.wantMessage)
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	err := Unauthenticated("missing token")

	if unwrapped := err.Unwrap(); unwrapped != ErrUnauthenticated {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, ErrUnauthenticated)
	}
}

func TestValidationFailedField(t *testing.T) {
	err := ValidationFailed("email", "email is required")

	if err.Field != "email" {
		t.Errorf("Field = %q, want %q", err.Field, "email")
	}
}

func TestErrorsAs(t *testing.T) {
	wrapped := fmt.Errorf("service: %w", Forbidden("only the owner may delete this recipe"))

	var appErr *AppError
	if !errors.As(wrapped, &appErr) {
		t.Fatal("errors.As() should find the *AppError in the chain")
	}
	if appErr.Message != "only the owner may delete this recipe" {
		t.Errorf("Message = %q", appErr.Message)
	}
}
