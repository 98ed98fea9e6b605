package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Centralized domain errors. Group and event operations return these so
// the router can map them onto response results with errors.Is.

// ===== Group Errors =====
var (
	ErrGroupNotFound         = errors.New("group not found")
	ErrGroupNameAlreadyInUse = errors.New("group name already in use")
	ErrTooManyEvents         = errors.New("group has reached the maximum number of events")
)

// ===== Event Errors =====
var (
	ErrEventNotFound          = errors.New("event not found")
	ErrEventCancelled         = errors.New("event is cancelled")
	ErrEventAlreadyStarted    = errors.New("event has already started")
	ErrEventFull              = errors.New("event is full")
	ErrEditLocked             = errors.New("event starts too soon to be edited")
	ErrStartTimeInPast        = errors.New("event cannot start in the past")
	ErrMaxAttendeesBelowCount = errors.New("max attendees is lower than the current attendee count")
)

// ===== Account Errors =====
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAddressInUse  = errors.New("email address already in use")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenNotFound      = errors.New("token not found")
	ErrNotLoggedIn        = errors.New("not logged in")
	ErrNotOwnerOrAdmin    = errors.New("not the group owner or an admin")
	ErrAdminOnly          = errors.New("admin only")
	ErrUnsupportedRequest = errors.New("unsupported request")
)

// OverlapError is returned when an event interval intersects existing
// events of the same group. Conflicts lists every clashing event.
type OverlapError struct {
	Conflicts []Event
}

// Error implements the error interface
func (e *OverlapError) Error() string {
	names := make([]string, len(e.Conflicts))
	for i, c := range e.Conflicts {
		names[i] = c.Name
	}
	return fmt.Sprintf("event overlaps %d existing event(s): %s", len(e.Conflicts), strings.Join(names, ", "))
}

// ProblemDetails represents RFC 9457 Problem Details for HTTP APIs
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

// Error implements the error interface
func (p *ProblemDetails) Error() string {
	return fmt.Sprintf("[%d] %s: %s", p.Status, p.Title, p.Detail)
}

// WriteJSON writes the problem details as JSON response
func (p *ProblemDetails) WriteJSON(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

// Common error constructors

func NewNotFoundError(resource string) *ProblemDetails {
	return &ProblemDetails{
		Type:   "https://gather.forgo.software/errors/not-found",
		Title:  "Not Found",
		Status: http.StatusNotFound,
		Detail: fmt.Sprintf("%s not found", resource),
	}
}

func NewBadRequestError(detail string) *ProblemDetails {
	return &ProblemDetails{
		Type:   "https://gather.forgo.software/errors/bad-request",
		Title:  "Bad Request",
		Status: http.StatusBadRequest,
		Detail: detail,
	}
}

func NewInternalError(detail string) *ProblemDetails {
	if detail == "" {
		detail = "An unexpected error occurred"
	}
	return &ProblemDetails{
		Type:   "https://gather.forgo.software/errors/internal",
		Title:  "Internal Server Error",
		Status: http.StatusInternalServerError,
		Detail: detail,
	}
}

func NewServiceUnavailableError(detail string) *ProblemDetails {
	return &ProblemDetails{
		Type:   "https://gather.forgo.software/errors/unavailable",
		Title:  "Service Unavailable",
		Status: http.StatusServiceUnavailable,
		Detail: detail,
	}
}

func NewRateLimitError(retryAfter int) *ProblemDetails {
	return &ProblemDetails{
		Type:   "https://gather.forgo.software/errors/rate-limited",
		Title:  "Too Many Requests",
		Status: http.StatusTooManyRequests,
		Detail: fmt.Sprintf("Rate limit exceeded. Retry after %d seconds", retryAfter),
	}
}
