// This file implements the helpers that turn request bodies, paths and
// query strings into domain values. Every failure is a validation error.

package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"spendwise/internal/core"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// dateTimeLayouts are tried in order for date_time. Layouts without a zone
// are read in the server's local zone.
var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	time.DateTime,
	time.DateOnly,
}

// decodeJSON reads a single JSON object from the body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return core.Invalid(fmt.Errorf("request body too large (max %d bytes)", tooLarge.Limit))
		}
		return core.Invalid(fmt.Errorf("read request body: %w", err))
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return core.Invalid(errors.New("request body is required"))
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return core.Invalid(errors.New("malformed JSON body"))
	}
	return nil
}

// parseDateTime accepts RFC 3339 and the common zone-less variants. An empty
// string yields the zero time.
func parseDateTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, core.Invalid(fmt.Errorf("invalid date_time %q", s))
}

// parseExpenseFilter reads category, start_date and end_date from query.
func parseExpenseFilter(query url.Values) (core.ExpenseFilter, error) {
	var f core.ExpenseFilter

	if v := strings.TrimSpace(query.Get("category")); v != "" {
		c, err := core.ParseCategory(v)
		if err != nil {
			return f, core.Invalid(err)
		}
		f.Category = c
	}
	if v := strings.TrimSpace(query.Get("start_date")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return f, core.Invalid(fmt.Errorf("invalid start_date %q: use YYYY-MM-DD", v))
		}
		f.From = d
	}
	if v := strings.TrimSpace(query.Get("end_date")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return f, core.Invalid(fmt.Errorf("invalid end_date %q: use YYYY-MM-DD", v))
		}
		f.To = d
	}
	return f, nil
}

// pathID parses a positive integer path wildcard.
func pathID(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, core.Invalid(fmt.Errorf("invalid %s %q", name, raw))
	}
	return id, nil
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}
