package handler

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doccast/internal/podcast"
)

func TestCursorRoundTrip(t *testing.T) {
	in := &podcast.Cursor{
		CreatedAt: time.Date(2026, 3, 14, 9, 26, 53, 500, time.UTC),
		JobID:     "11111111-2222-3333-4444-555555555555",
	}

	token := EncodeCursor(in)
	out, err := DecodeCursor(token)
	require.NoError(t, err)

	assert.True(t, in.CreatedAt.Equal(out.CreatedAt))
	assert.Equal(t, in.JobID, out.JobID)
}

func TestDecodeCursor_Empty(t *testing.T) {
	out, err := DecodeCursor("")
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestDecodeCursor_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{name: "not base64", token: "!!!"},
		{name: "missing separator", token: base64.StdEncoding.EncodeToString([]byte("12345"))},
		{name: "non-numeric timestamp", token: base64.StdEncoding.EncodeToString([]byte("abc|job-1"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeCursor(tt.token)
			assert.Error(t, err)
		})
	}
}
