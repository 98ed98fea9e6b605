package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// ============================================================================
// ProblemDetails Tests
// ============================================================================

func TestProblemDetails_Error_ReturnsFormattedMessage(t *testing.T) {
	t.Parallel()

	pd := &ProblemDetails{
		Status: http.StatusNotFound,
		Title:  "Not Found",
		Detail: "group not found",
	}

	errMsg := pd.Error()

	if !strings.Contains(errMsg, "404") {
		t.Errorf("error message should contain status code, got: %s", errMsg)
	}
	if !strings.Contains(errMsg, "group not found") {
		t.Errorf("error message should contain detail, got: %s", errMsg)
	}
}

func TestProblemDetails_WriteJSON(t *testing.T) {
	t.Parallel()

	pd := NewNotFoundError("group")
	w := httptest.NewRecorder()

	pd.WriteJSON(w)

	if ct := w.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("expected problem+json content type, got %q", ct)
	}
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}

	var decoded ProblemDetails
	if err := json.Unmarshal(w.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("body is not valid JSON: %v", err)
	}
	if decoded.Detail != "group not found" {
		t.Errorf("unexpected detail %q", decoded.Detail)
	}
}

func TestProblemDetails_Constructors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		pd     *ProblemDetails
		status int
	}{
		{"bad request", NewBadRequestError("bad"), http.StatusBadRequest},
		{"internal", NewInternalError(""), http.StatusInternalServerError},
		{"unavailable", NewServiceUnavailableError("db down"), http.StatusServiceUnavailable},
		{"rate limit", NewRateLimitError(60), http.StatusTooManyRequests},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if tt.pd.Status != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, tt.pd.Status)
			}
			if !strings.HasPrefix(tt.pd.Type, "https://gather.forgo.software/errors/") {
				t.Errorf("unexpected type %q", tt.pd.Type)
			}
			if tt.pd.Detail == "" {
				t.Error("detail should never be empty")
			}
		})
	}
}

// ============================================================================
// Domain Error Tests
// ============================================================================

func TestOverlapError_ListsConflicts(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("create event: %w", &OverlapError{Conflicts: []Event{
		{Name: "5k", StartTime: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)},
		{Name: "10k", StartTime: time.Date(2030, 1, 1, 1, 0, 0, 0, time.UTC)},
	}})

	var overlap *OverlapError
	if !errors.As(err, &overlap) {
		t.Fatal("expected wrapped OverlapError")
	}
	if len(overlap.Conflicts) != 2 {
		t.Errorf("expected 2 conflicts, got %d", len(overlap.Conflicts))
	}
	if !strings.Contains(err.Error(), "5k, 10k") {
		t.Errorf("error should name conflicts, got %q", err.Error())
	}
}

func TestSentinels_AreDistinct(t *testing.T) {
	t.Parallel()

	all := []error{
		ErrGroupNotFound, ErrGroupNameAlreadyInUse, ErrTooManyEvents,
		ErrEventNotFound, ErrEventCancelled, ErrEventAlreadyStarted, ErrEventFull,
		ErrEditLocked, ErrStartTimeInPast, ErrMaxAttendeesBelowCount,
		ErrUserNotFound, ErrEmailAddressInUse, ErrTokenExpired, ErrTokenNotFound,
	}
	for i, a := range all {
		for j, b := range all {
			if i != j && errors.Is(a, b) {
				t.Errorf("%v should not match %v", a, b)
			}
		}
	}
}
