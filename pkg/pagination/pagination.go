package pagination

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 50
	// MaxLimit caps how many rows any cursor query can request.
	MaxLimit = 500
)

// Params holds cursor pagination inputs from controllers or services.
type Params struct {
	Limit  int
	Cursor string
}

// Cursor marks the last row of the previous page. Pages walk movement
// records by descending id.
type Cursor struct {
	BeforeID int64
}

// NormalizeLimit enforces the configured default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// LimitWithBuffer returns the normalization result plus one to detect the next page.
func LimitWithBuffer(limit int) int {
	return NormalizeLimit(limit) + 1
}

// EncodeCursor builds an opaque cursor string.
func EncodeCursor(cursor Cursor) string {
	return base64.RawURLEncoding.EncodeToString([]byte("id:" + strconv.FormatInt(cursor.BeforeID, 10)))
}

// ParseCursor decodes a cursor string. Blank input means the first page and
// yields nil.
func ParseCursor(value string) (*Cursor, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	decoded, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}
	raw, ok := strings.CutPrefix(string(decoded), "id:")
	if !ok {
		return nil, fmt.Errorf("invalid cursor format")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("invalid cursor id %q", raw)
	}
	return &Cursor{BeforeID: id}, nil
}

// Trim cuts a result fetched with LimitWithBuffer down to limit rows and
// returns the cursor for the next page, or "" when this was the last one.
func Trim[T any](rows []T, limit int, idOf func(T) int64) ([]T, string) {
	limit = NormalizeLimit(limit)
	if len(rows) <= limit {
		return rows, ""
	}
	rows = rows[:limit]
	return rows, EncodeCursor(Cursor{BeforeID: idOf(rows[len(rows)-1])})
}
