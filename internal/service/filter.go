package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Skotchmaster/online_cinema/internal/repo"
)

// ListQuery carries raw admin list filters as received from the query string.
type ListQuery struct {
	UserID   string
	Status   string
	DateFrom string
	DateTo   string
	Limit    string
	Offset   string
}

const dateOnly = "2006-01-02"

func parseDate(v string, endOfDay bool) (*time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.Parse(dateOnly, v)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func parseListQuery(q ListQuery, validStatus func(string) bool) (repo.ListFilter, error) {
	var f repo.ListFilter

	if v := strings.TrimSpace(q.UserID); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil || id == 0 {
			return f, fmt.Errorf("%w: invalid user_id %q", ErrValidation, v)
		}
		uid := uint(id)
		f.UserID = &uid
	}
	if v := strings.ToLower(strings.TrimSpace(q.Status)); v != "" {
		if !validStatus(v) {
			return f, fmt.Errorf("%w: invalid status %q", ErrValidation, v)
		}
		f.Status = v
	}
	if v := strings.TrimSpace(q.DateFrom); v != "" {
		t, err := parseDate(v, false)
		if err != nil {
			return f, fmt.Errorf("%w: invalid date_from %q", ErrValidation, v)
		}
		f.From = t
	}
	if v := strings.TrimSpace(q.DateTo); v != "" {
		t, err := parseDate(v, true)
		if err != nil {
			return f, fmt.Errorf("%w: invalid date_to %q", ErrValidation, v)
		}
		f.To = t
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return f, fmt.Errorf("%w: date_from must not be after date_to", ErrValidation)
	}
	if v := strings.TrimSpace(q.Limit); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, fmt.Errorf("%w: invalid limit %q", ErrValidation, v)
		}
		f.Limit = n
	}
	if v := strings.TrimSpace(q.Offset); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, fmt.Errorf("%w: invalid offset %q", ErrValidation, v)
		}
		f.Offset = n
	}
	return f, nil
}
