package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"abc-dashboard/internal/export"
	"abc-dashboard/internal/query"
	"abc-dashboard/internal/records"
	"abc-dashboard/internal/workers"
)

// SnapshotSource serves the shared record snapshot
type SnapshotSource interface {
	Current() (*records.Snapshot, error)
	LastRefresh() *time.Time
	Status() workers.PollerStatus
	Refresh(ctx context.Context) (*records.Snapshot, error)
}

// ErrorResponse is the JSON body of a failed API call
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps err onto a status code. Upstream failures are 503 so
// clients never mistake them for an empty data set.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := http.StatusInternalServerError
	var (
		netErr    *records.NetworkError
		svcErr    *records.ServiceError
		renderErr *export.RenderError
	)
	switch {
	case errors.As(err, &netErr), errors.As(err, &svcErr),
		errors.Is(err, workers.ErrNoSnapshot), errors.Is(err, workers.ErrPollerStopped):
		status = http.StatusServiceUnavailable
	case errors.As(err, &renderErr):
		status = http.StatusBadGateway
	case errors.Is(err, query.ErrInvalidPageSize), errors.Is(err, query.ErrInvalidPage),
		errors.Is(err, query.ErrDistrictRequired), errors.Is(err, query.ErrULBNotInDistrict):
		status = http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}

	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", "status", status, "error", err)
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: msg})
}

// parseDay parses a YYYY-MM-DD query value; "" yields nil
func parseDay(name, raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, ok := records.ParseDate(raw)
	if !ok {
		return nil, fmt.Errorf("invalid %s date %q, expected YYYY-MM-DD", name, raw)
	}
	return &t, nil
}

// parseRange reads the from and to parameters
func parseRange(r *http.Request) (from, to *time.Time, err error) {
	q := r.URL.Query()
	if from, err = parseDay("from", q.Get("from")); err != nil {
		return nil, nil, err
	}
	if to, err = parseDay("to", q.Get("to")); err != nil {
		return nil, nil, err
	}
	if from != nil && to != nil && from.After(*to) {
		return nil, nil, fmt.Errorf("from date is after to date")
	}
	return from, to, nil
}

// parseView builds the table view state from the query string. Values
// are applied in the order a user would pick them, so the same rules
// hold as in the interactive views.
func parseView(r *http.Request, dir query.ULBDirectory) (*query.ViewState, error) {
	q := r.URL.Query()
	state := query.NewViewState(dir)

	state.SetDistrict(strings.TrimSpace(q.Get("district")))
	if err := state.SetULB(strings.TrimSpace(q.Get("ulb"))); err != nil {
		return nil, err
	}

	from, to, err := parseRange(r)
	if err != nil {
		return nil, err
	}
	field, err := query.ParseDateField(q.Get("date_field"))
	if err != nil {
		return nil, err
	}
	state.SetDateRange(from, to, field)

	if raw := q.Get("page_size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil {
			return nil, query.ErrInvalidPageSize
		}
		if err := state.SetPageSize(size); err != nil {
			return nil, err
		}
	}
	return state, nil
}

// parsePage reads the zero-based page parameter
func parsePage(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("page")
	if raw == "" {
		return 0, nil
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 0 {
		return 0, query.ErrInvalidPage
	}
	return page, nil
}

// filterKey identifies a filter in memoization keys
func filterKey(f query.Filter) string {
	day := func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.Format("2006-01-02")
	}
	return strings.Join([]string{f.District, f.ULB, day(f.DateFrom), day(f.DateTo), string(f.DateField)}, "|")
}

func boolParam(r *http.Request, name string) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return v
}
