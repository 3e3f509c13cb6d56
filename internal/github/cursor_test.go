package github

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursor(t *testing.T) {
	t.Run("round trips through encode and decode", func(t *testing.T) {
		in := &Cursor{Version: CursorVersion, Page: 17}

		out, err := DecodeCursor(in.Encode())

		require.NoError(t, err)
		assert.Equal(t, in, out)
	})

	t.Run("empty token points at the start of the listing", func(t *testing.T) {
		out, err := DecodeCursor("")

		require.NoError(t, err)
		assert.Equal(t, 1, out.Page)
		assert.Equal(t, CursorVersion, out.Version)
	})

	t.Run("garbage is rejected", func(t *testing.T) {
		_, err := DecodeCursor("not base64!!")

		assert.ErrorIs(t, err, ErrInvalidCursor)
	})

	t.Run("valid base64 of non-JSON is rejected", func(t *testing.T) {
		token := base64.StdEncoding.EncodeToString([]byte("not json"))

		_, err := DecodeCursor(token)

		assert.ErrorIs(t, err, ErrInvalidCursor)
	})

	t.Run("a page below one is clamped", func(t *testing.T) {
		token := (&Cursor{Version: CursorVersion, Page: -3}).Encode()

		out, err := DecodeCursor(token)

		require.NoError(t, err)
		assert.Equal(t, 1, out.Page)
	})

	t.Run("nil cursor encodes to the empty token", func(t *testing.T) {
		var c *Cursor

		assert.Empty(t, c.Encode())
	})
}
