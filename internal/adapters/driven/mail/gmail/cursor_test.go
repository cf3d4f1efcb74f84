package gmail

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursor_RoundTrip(t *testing.T) {
	cursor := NewCursor()
	cursor.HistoryID = 123456

	decoded, err := DecodeCursor(cursor.Encode())
	require.NoError(t, err)
	assert.Equal(t, uint64(123456), decoded.HistoryID)
	assert.Equal(t, CursorVersion, decoded.Version)
}

func TestDecodeCursor_Empty(t *testing.T) {
	decoded, err := DecodeCursor("")
	require.NoError(t, err)
	assert.True(t, decoded.IsEmpty())
}

func TestDecodeCursor_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not base64", "!!!not-base64!!!"},
		{"not json", "bm90IGpzb24="},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeCursor(tt.input)
			assert.ErrorIs(t, err, ErrInvalidCursor)
		})
	}
}

func TestDecodeCursor_FutureVersion(t *testing.T) {
	cursor := &Cursor{Version: CursorVersion + 1, HistoryID: 1}

	_, err := DecodeCursor(cursor.Encode())

	assert.ErrorIs(t, err, ErrInvalidCursor)
}

func TestCursor_IsEmpty(t *testing.T) {
	assert.True(t, NewCursor().IsEmpty())
	assert.False(t, (&Cursor{Version: CursorVersion, HistoryID: 7}).IsEmpty())
}
