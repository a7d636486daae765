package errors

import (
	"errors"
	"net/http"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidSite, "unknown site: %s", "XYZ")

	if err.Code != ErrCodeInvalidSite {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidSite)
	}

	if err.Message != "unknown site: XYZ" {
		t.Errorf("Message = %v, want %v", err.Message, "unknown site: XYZ")
	}

	expected := "INVALID_SITE: unknown site: XYZ"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("open KOG.shp: no such file")
	err := Wrap(ErrCodeFileNotFound, cause, "load shapefile")

	if err.Code != ErrCodeFileNotFound {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeFileNotFound)
	}

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}

	if unwrapped := errors.Unwrap(err); unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{
			name:     "matching code",
			err:      New(ErrCodeUndefinedCRS, "test"),
			code:     ErrCodeUndefinedCRS,
			expected: true,
		},
		{
			name:     "non-matching code",
			err:      New(ErrCodeUndefinedCRS, "test"),
			code:     ErrCodeInvalidGeometry,
			expected: false,
		},
		{
			name:     "wrapped error",
			err:      Wrap(ErrCodeInsufficientData, New(ErrCodeEmptyGeometry, "inner"), "outer"),
			code:     ErrCodeInsufficientData,
			expected: true,
		},
		{
			name:     "non-Error type",
			err:      errors.New("plain error"),
			code:     ErrCodeInvalidInput,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			code:     ErrCodeInvalidInput,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Code
	}{
		{"Error type", New(ErrCodeInvalidDateRange, "test"), ErrCodeInvalidDateRange},
		{"plain error", errors.New("plain"), ""},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.expected {
				t.Errorf("GetCode() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"Error type", New(ErrCodeInvalidInput, "friendly message"), "friendly message"},
		{"plain error", errors.New("plain error"), "plain error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.expected {
				t.Errorf("UserMessage() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{ErrCodeInvalidSite, http.StatusBadRequest},
		{ErrCodeInvalidFormat, http.StatusBadRequest},
		{ErrCodeFileNotFound, http.StatusNotFound},
		{ErrCodeInsufficientData, http.StatusUnprocessableEntity},
		{ErrCodeUnsupported, http.StatusNotImplemented},
		{ErrCodeUndefinedCRS, http.StatusInternalServerError},
		{"", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := HTTPStatus(tt.code); got != tt.want {
			t.Errorf("HTTPStatus(%q) = %d, want %d", tt.code, got, tt.want)
		}
	}
}

func TestFatal(t *testing.T) {
	if !Fatal(ErrCodeUndefinedCRS) {
		t.Error("UNDEFINED_CRS should be fatal")
	}
	if Fatal(ErrCodeInvalidGeometry) {
		t.Error("INVALID_GEOMETRY should degrade per shape, not abort")
	}
	if Fatal(ErrCodeEmptyGeometry) {
		t.Error("EMPTY_GEOMETRY is a warning")
	}
}
