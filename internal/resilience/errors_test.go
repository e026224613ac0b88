package resilience

import (
	"errors"
	"fmt"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceUnavailableError(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := Unavailable("nominatim", "Nominatim is not reachable right now.", cause)

	assert.Contains(t, err.Error(), "Nominatim is not reachable")
	assert.Contains(t, err.Error(), "connection refused")
	assert.ErrorIs(t, err, cause)

	// Survives wrapping.
	wrapped := eris.Wrap(fmt.Errorf("search: %w", err), "service")
	sue, ok := AsServiceUnavailable(wrapped)
	require.True(t, ok)
	assert.Equal(t, "nominatim", sue.Service)
	assert.Equal(t, "Nominatim is not reachable right now.", sue.Message)

	_, ok = AsServiceUnavailable(errors.New("plain"))
	assert.False(t, ok)
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain error", errors.New("boom"), false},
		{"explicit transient", NewTransientError(errors.New("429"), 429), true},
		{"wrapped transient", fmt.Errorf("outer: %w", NewTransientError(errors.New("503"), 503)), true},
		{"timeout message", errors.New("read tcp: i/o timeout"), true},
		{"dns message", errors.New("lookup api.example.com: no such host"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		assert.True(t, IsTransientHTTPStatus(code), "code %d", code)
	}
	for _, code := range []int{200, 301, 400, 401, 403, 404} {
		assert.False(t, IsTransientHTTPStatus(code), "code %d", code)
	}
}
