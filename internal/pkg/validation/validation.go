package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ParseUUID parses a non-nil UUID.
func ParseUUID(s string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

// ParseDecimal parses a decimal amount given as a JSON string or number.
func ParseDecimal(s string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// ParseOptionalDecimal returns nil for an empty string.
func ParseOptionalDecimal(s string) (*decimal.Decimal, bool) {
	if strings.TrimSpace(s) == "" {
		return nil, true
	}
	d, ok := ParseDecimal(s)
	if !ok {
		return nil, false
	}
	return &d, true
}

// DecodeBody reads a JSON object keeping numbers as json.Number so amounts
// reach ParseDecimal without a float64 round trip.
func DecodeBody(b []byte) (map[string]interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var body map[string]interface{}
	if err := dec.Decode(&body); err != nil {
		return nil, err
	}
	if body == nil {
		return nil, fmt.Errorf("body must be a JSON object")
	}
	return body, nil
}

// Field returns a string or numeric body field as text ("" when absent or null).
func Field(body map[string]interface{}, key string) string {
	switch v := body[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}
