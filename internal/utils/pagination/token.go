package pagination

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

const timeFormat = time.RFC3339Nano // Use a precise time format

const fieldSeparator = "|"

// EncodeDateIDToken creates an opaque continuation token from the creation
// time and id of the last record on a page. The id breaks ties between
// records sharing the same creation time. Tokens use the URL-safe base64
// alphabet so clients can place them in query strings verbatim.
func EncodeDateIDToken(date time.Time, id string) string {
	payload := date.Format(timeFormat) + fieldSeparator + id
	return base64.RawURLEncoding.EncodeToString([]byte(payload))
}

// DecodeDateIDToken decodes a continuation token back into its time and id
// bounds.
func DecodeDateIDToken(token string) (time.Time, string, error) {
	decodedBytes, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("invalid pagination token format (base64 decode): %w", err)
	}

	raw, id, found := strings.Cut(string(decodedBytes), fieldSeparator)
	if !found {
		return time.Time{}, "", fmt.Errorf("invalid pagination token format (missing field separator)")
	}

	date, err := time.Parse(timeFormat, raw)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("invalid pagination token format (date parse): %w", err)
	}

	return date, id, nil
}
