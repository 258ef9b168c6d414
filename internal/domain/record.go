package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Record field names, shared by every store backend.
const (
	FieldText      = "text"
	FieldTimestamp = "timestamp"
	FieldIsURL     = "isUrl"
)

// Record is the raw field set of one bookmark as stored remotely,
// prior to typed parsing. Values are whatever the backend decoded.
type Record map[string]any

// NewRecord builds the record written for a new bookmark.
func NewRecord(text string, now time.Time) Record {
	return Record{
		FieldText:      text,
		FieldTimestamp: now.UnixMilli(),
		FieldIsURL:     ClassifyURL(text),
	}
}

// SkipReason explains why a record could not become a Bookmark.
type SkipReason string

const (
	SkipMissingID   SkipReason = "missing id"
	SkipMissingText SkipReason = "missing text"
	SkipInvalidText SkipReason = "text is not a string"
	SkipBlankText   SkipReason = "blank text"
)

// RecordError is returned by ParseRecord for a record that must be skipped.
type RecordError struct {
	ID     string
	Reason SkipReason
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record %q skipped: %s", e.ID, e.Reason)
}

// ParseRecord maps a raw record to a Bookmark. It never panics.
//
// text is required: a missing, non-string or blank text yields a *RecordError.
// timestamp falls back to now when missing or not an integral number.
// isUrl falls back to false when missing or not a boolean.
func ParseRecord(id string, raw Record, now time.Time) (Bookmark, error) {
	if id == "" {
		return Bookmark{}, &RecordError{ID: id, Reason: SkipMissingID}
	}

	rawText, ok := raw[FieldText]
	if !ok || rawText == nil {
		return Bookmark{}, &RecordError{ID: id, Reason: SkipMissingText}
	}
	text, ok := rawText.(string)
	if !ok {
		return Bookmark{}, &RecordError{ID: id, Reason: SkipInvalidText}
	}
	if IsBlank(text) {
		return Bookmark{}, &RecordError{ID: id, Reason: SkipBlankText}
	}

	timestamp, ok := asMillis(raw[FieldTimestamp])
	if !ok {
		timestamp = now.UnixMilli()
	}

	isURL, ok := raw[FieldIsURL].(bool)
	if !ok {
		isURL = false
	}

	return Bookmark{
		ID:        id,
		Text:      text,
		Timestamp: timestamp,
		IsURL:     isURL,
	}, nil
}

// asMillis accepts the integer shapes produced by the supported decoders
// (JSON with UseNumber, plain JSON, Firestore, in-process records).
func asMillis(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case float64:
		if n != math.Trunc(n) || n >= math.MaxInt64 || n < math.MinInt64 {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}
