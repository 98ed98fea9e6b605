package protocol

import (
	"errors"

	"github.com/forgo/gather/internal/model"
)

// Code is the stable, client-renderable identifier of a domain failure
type Code string

const (
	CodeGroupNotFound                  Code = "GroupNotFound"
	CodeGroupNameAlreadyInUse          Code = "GroupNameAlreadyInUse"
	CodeTooManyEvents                  Code = "TooManyEvents"
	CodeEventNotFound                  Code = "EventNotFound"
	CodeEventCancelled                 Code = "EventCancelled"
	CodeEventAlreadyStarted            Code = "EventAlreadyStarted"
	CodeEventFull                      Code = "EventFull"
	CodeEventOverlaps                  Code = "EventOverlaps"
	CodeEditLocked                     Code = "EditLocked"
	CodeStartTimeInPast                Code = "StartTimeInPast"
	CodeMaxAttendeesBelowAttendeeCount Code = "MaxAttendeesBelowAttendeeCount"
	CodeUserNotFound                   Code = "UserNotFound"
	CodeEmailAddressInUse              Code = "EmailAddressInUse"
	CodeTokenExpired                   Code = "TokenExpired"
	CodeTokenNotFound                  Code = "TokenNotFound"
	CodeInternal                       Code = "Internal"
)

// EventConflict names one event an overlapping create or edit collided with
type EventConflict struct {
	EventID   model.EventID `json:"event_id"`
	Name      string        `json:"name"`
	StartTime string        `json:"start_time"`
	EndTime   string        `json:"end_time"`
}

// Error is the failure branch of a Result
type Error struct {
	Code      Code            `json:"code"`
	Message   string          `json:"message"`
	Conflicts []EventConflict `json:"conflicts,omitempty"`
}

// FromError converts a domain error into its wire form. Errors the client
// has no variant for become CodeInternal.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}

	var overlap *model.OverlapError
	if errors.As(err, &overlap) {
		conflicts := make([]EventConflict, len(overlap.Conflicts))
		for i, c := range overlap.Conflicts {
			conflicts[i] = EventConflict{
				EventID:   c.ID,
				Name:      c.Name,
				StartTime: c.StartTime.UTC().Format(timeLayout),
				EndTime:   c.EndTime().UTC().Format(timeLayout),
			}
		}
		return &Error{Code: CodeEventOverlaps, Message: err.Error(), Conflicts: conflicts}
	}

	code := CodeInternal
	switch {
	// ===== Group =====
	case errors.Is(err, model.ErrGroupNotFound):
		code = CodeGroupNotFound
	case errors.Is(err, model.ErrGroupNameAlreadyInUse):
		code = CodeGroupNameAlreadyInUse
	case errors.Is(err, model.ErrTooManyEvents):
		code = CodeTooManyEvents

	// ===== Event =====
	case errors.Is(err, model.ErrEventNotFound):
		code = CodeEventNotFound
	case errors.Is(err, model.ErrEventCancelled):
		code = CodeEventCancelled
	case errors.Is(err, model.ErrEventAlreadyStarted):
		code = CodeEventAlreadyStarted
	case errors.Is(err, model.ErrEventFull):
		code = CodeEventFull
	case errors.Is(err, model.ErrEditLocked):
		code = CodeEditLocked
	case errors.Is(err, model.ErrStartTimeInPast):
		code = CodeStartTimeInPast
	case errors.Is(err, model.ErrMaxAttendeesBelowCount):
		code = CodeMaxAttendeesBelowAttendeeCount

	// ===== Account =====
	case errors.Is(err, model.ErrUserNotFound):
		code = CodeUserNotFound
	case errors.Is(err, model.ErrEmailAddressInUse):
		code = CodeEmailAddressInUse
	case errors.Is(err, model.ErrTokenExpired):
		code = CodeTokenExpired
	case errors.Is(err, model.ErrTokenNotFound):
		code = CodeTokenNotFound
	}

	msg := err.Error()
	if code == CodeInternal {
		msg = "an unexpected error occurred"
	}
	return &Error{Code: code, Message: msg}
}
