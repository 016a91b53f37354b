package pagination

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Pagination struct {
	PageToken string `form:"page_token"`
	PageSize  int    `form:"page_size,default=10" validate:"gte=1,lte=250"` // Min 1, Max 250
}

// Cursor is the decoded form of a page token. Ordering is by created_at
// with id as tiebreaker.
type Cursor struct {
	ID        string `json:"id,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

type PageInfo struct {
	NextPageToken string `json:"next_page_token"`
	HasMore       bool   `json:"has_more"`
}

func EncodeCursor(data Cursor) (string, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return "", err
	}

	return base64.StdEncoding.EncodeToString(b), nil
}

func DecodeCursor(data string) (*Cursor, error) {
	b, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, err
	}

	var cursor Cursor
	if err := json.Unmarshal(b, &cursor); err != nil {
		return nil, err
	}

	return &cursor, nil
}

// DecodeIDTimeCursor decodes a page token into its snowflake id and
// created_at components.
func DecodeIDTimeCursor(token string) (snowflake.ID, time.Time, error) {
	decoded, err := DecodeCursor(token)
	if err != nil {
		return 0, time.Time{}, err
	}
	createdAt, err := time.Parse(time.RFC3339Nano, decoded.CreatedAt)
	if err != nil {
		return 0, time.Time{}, err
	}
	id, err := snowflake.ParseString(strings.TrimSpace(decoded.ID))
	if err != nil {
		return 0, time.Time{}, err
	}
	return id, createdAt, nil
}

// EncodeIDTimeCursor builds a page token from a snowflake id and created_at.
func EncodeIDTimeCursor(id snowflake.ID, createdAt time.Time) string {
	token, err := EncodeCursor(Cursor{
		ID:        id.String(),
		CreatedAt: createdAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return ""
	}
	return token
}

// BuildCursorPageInfo trims an over-fetched page (limit+1 rows) and
// derives the next page token from the last visible row.
func BuildCursorPageInfo[T any](data []*T, limit int, extractCursor func(*T) string) (*PageInfo, []*T) {
	if len(data) == 0 {
		return &PageInfo{HasMore: false}, data
	}

	hasMore := false
	if len(data) > limit {
		hasMore = true
		data = data[:limit]
	}

	return &PageInfo{
		HasMore:       hasMore,
		NextPageToken: extractCursor(data[len(data)-1]),
	}, data
}
