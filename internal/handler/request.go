package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/devrev/bizdir/internal/middleware"
	"github.com/devrev/bizdir/internal/service"
	"github.com/gorilla/mux"
)

const (
	maxJSONBody = 1 << 20
	dateLayout  = "2006-01-02"
)

// BusinessHTTPRequest is the body of listing create and update requests.
type BusinessHTTPRequest struct {
	CategoryID    string          `json:"category_id"`
	SubcategoryID *string         `json:"subcategory_id,omitempty"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Address       string          `json:"address"`
	City          string          `json:"city"`
	Phone         string          `json:"phone"`
	Email         string          `json:"email"`
	Website       string          `json:"website"`
	WorkingHours  json.RawMessage `json:"working_hours,omitempty"`
}

func (b BusinessHTTPRequest) input() service.BusinessInput {
	return service.BusinessInput{
		CategoryID:    b.CategoryID,
		SubcategoryID: b.SubcategoryID,
		Name:          b.Name,
		Description:   b.Description,
		Address:       b.Address,
		City:          b.City,
		Phone:         b.Phone,
		Email:         b.Email,
		Website:       b.Website,
		WorkingHours:  b.WorkingHours,
	}
}

// ReviewHTTPRequest is the body of POST /v1/businesses/{id}/reviews.
type ReviewHTTPRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// VerificationHTTPRequest is the body of verification requests and decisions.
type VerificationHTTPRequest struct {
	Notes      string `json:"notes,omitempty"`
	AdminNotes string `json:"admin_notes,omitempty"`
}

// CategoryHTTPRequest is the body of category and subcategory writes.
type CategoryHTTPRequest struct {
	Name        string `json:"name"`
	Slug        string `json:"slug,omitempty"`
	Description string `json:"description,omitempty"`
}

// ClickHTTPRequest is the body of POST /v1/analytics/clicks.
type ClickHTTPRequest struct {
	BusinessID string `json:"business_id"`
	ClickType  string `json:"click_type"`
	Referrer   string `json:"referrer,omitempty"`
}

// RoleHTTPRequest is the body of PUT /v1/admin/users/{id}/role.
type RoleHTTPRequest struct {
	Role string `json:"role"`
}

// decodeJSON reads a bounded JSON body into v. An empty body is allowed when optional is set.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}, optional bool) error {
	defer r.Body.Close()

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("failed to parse request body: %w", err)
	}
	return nil
}

// pageFrom reads limit and offset query parameters.
func pageFrom(r *http.Request) (service.Page, error) {
	var page service.Page
	q := r.URL.Query()

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return page, fmt.Errorf("limit must be a non-negative integer")
		}
		page.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return page, fmt.Errorf("offset must be a non-negative integer")
		}
		page.Offset = n
	}
	return page.Normalize(), nil
}

// listingQueryFrom parses the public directory filters.
func listingQueryFrom(r *http.Request) (service.ListingQuery, error) {
	page, err := pageFrom(r)
	if err != nil {
		return service.ListingQuery{}, err
	}
	q := r.URL.Query()
	return service.ListingQuery{
		CategoryID:    q.Get("category_id"),
		SubcategoryID: q.Get("subcategory_id"),
		City:          q.Get("city"),
		Search:        strings.TrimSpace(q.Get("q")),
		Page:          page,
	}, nil
}

// rangeFrom parses the from and to query parameters. Dates without a time
// are whole days, so to=2026-05-31 includes all of May 31.
func rangeFrom(r *http.Request) (time.Time, time.Time, error) {
	from, _, err := parseBound(r.URL.Query().Get("from"))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid from: %w", err)
	}
	to, dateOnly, err := parseBound(r.URL.Query().Get("to"))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid to: %w", err)
	}
	if dateOnly {
		to = to.AddDate(0, 0, 1)
	}
	return from, to, nil
}

func parseBound(v string) (time.Time, bool, error) {
	if v == "" {
		return time.Time{}, false, nil
	}
	if t, err := time.Parse(dateLayout, v); err == nil {
		return t, true, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("expected YYYY-MM-DD or RFC 3339")
	}
	return t.UTC(), false, nil
}

// clientIP returns the first X-Forwarded-For hop, falling back to the peer address.
func clientIP(r *http.Request) string {
	return middleware.ClientIP(r)
}

func pathVar(r *http.Request, name string) string {
	return mux.Vars(r)[name]
}
