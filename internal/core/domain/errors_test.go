package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"rate limited", ErrRateLimited, true},
		{"remote unavailable", ErrRemoteUnavailable, true},
		{"wrapped rate limit", fmt.Errorf("get batch: %w", ErrRateLimited), true},
		{"cursor expired", ErrCursorExpired, false},
		{"auth invalid", ErrAuthInvalid, false},
		{"not found", ErrNotFound, false},
		{"plain error", errors.New("boom"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}
