package storage

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDataURL(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte("pixels"))

	t.Run("full data URL", func(t *testing.T) {
		contentType, raw, err := decodeDataURL("data:image/png;base64," + payload)
		require.NoError(t, err)
		assert.Equal(t, "image/png", contentType)
		assert.Equal(t, []byte("pixels"), raw)
	})

	t.Run("bare base64 defaults to jpeg", func(t *testing.T) {
		contentType, raw, err := decodeDataURL(payload)
		require.NoError(t, err)
		assert.Equal(t, "image/jpeg", contentType)
		assert.Equal(t, []byte("pixels"), raw)
	})

	t.Run("missing comma", func(t *testing.T) {
		_, _, err := decodeDataURL("data:image/png;base64")
		assert.Error(t, err)
	})

	t.Run("invalid base64", func(t *testing.T) {
		_, _, err := decodeDataURL("data:image/png;base64,!!!")
		assert.Error(t, err)
	})
}
