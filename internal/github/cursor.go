package github

import (
	"encoding/base64"
	"encoding/json"
)

// CursorVersion is the current cursor schema version.
const CursorVersion = 1

// Cursor is the opaque resume token for the pull-request listing. It
// names the next listing page to fetch; the listing is sorted by
// creation ascending, so page numbers stay stable as new pull requests
// only ever append.
type Cursor struct {
	// Version is the schema version for future migrations.
	Version int `json:"v"`

	// Page is the next listing page to fetch (1-based).
	Page int `json:"page"`
}

// NewCursor returns a cursor pointing at the start of the listing.
func NewCursor() *Cursor {
	return &Cursor{Version: CursorVersion, Page: 1}
}

// Encode serializes the cursor to a base64-encoded JSON string.
func (c *Cursor) Encode() string {
	if c == nil {
		return ""
	}
	data, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(data)
}

// DecodeCursor deserializes a cursor from a base64-encoded JSON string.
// An empty input yields a cursor at the start of the listing.
func DecodeCursor(s string) (*Cursor, error) {
	if s == "" {
		return NewCursor(), nil
	}

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, ErrInvalidCursor
	}

	var cursor Cursor
	if err := json.Unmarshal(data, &cursor); err != nil {
		return nil, ErrInvalidCursor
	}

	if cursor.Page < 1 {
		cursor.Page = 1
	}

	return &cursor, nil
}
