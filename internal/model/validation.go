package model

import (
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"time"
	_ "time/tzdata"
	"unicode/utf8"
)

// Field length and range limits
const (
	MaxNameLength            = 50
	MaxDescriptionLength     = 2000
	MaxEmailLength           = 254
	MaxMeetingLinkLength     = 2000
	MaxAddressLength         = 1000
	MaxCancellationReasonLen = 500
	MaxSearchTextLength      = 1000
	MinEventDurationMinutes  = 1
	MaxEventDurationMinutes  = 7 * 24 * 60
	MinMaxAttendees          = 2
	MaxMaxAttendees          = 10_000
	MaxTimezoneLength        = 100
)

// ValidationReason is the machine-readable cause of a ValidationError
type ValidationReason string

const (
	ReasonEmpty                ValidationReason = "Empty"
	ReasonStringIsTooLong      ValidationReason = "StringIsTooLong"
	ReasonInvalidDataURLPrefix ValidationReason = "InvalidDataUrlPrefix"
	ReasonInvalidEmail         ValidationReason = "InvalidEmail"
	ReasonOutOfRange           ValidationReason = "OutOfRange"
	ReasonInvalidURL           ValidationReason = "InvalidUrl"
	ReasonInvalidTimezone      ValidationReason = "InvalidTimezone"
	ReasonInvalidEnum          ValidationReason = "InvalidEnum"
	ReasonMismatchedEventKind  ValidationReason = "MismatchedEventKind"
)

// ValidationError rejects one untrusted field
type ValidationError struct {
	Field   string           `json:"field"`
	Reason  ValidationReason `json:"reason"`
	Message string           `json:"message"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field string, reason ValidationReason, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: reason, Message: fmt.Sprintf(format, args...)}
}

func validateName(field, raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", invalid(field, ReasonEmpty, "%s is required", field)
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return "", invalid(field, ReasonStringIsTooLong, "%s must be %d characters or less", field, MaxNameLength)
	}
	return name, nil
}

func validateDescription(field, raw string) (string, error) {
	desc := strings.TrimSpace(raw)
	if utf8.RuneCountInString(desc) > MaxDescriptionLength {
		return "", invalid(field, ReasonStringIsTooLong, "%s must be %d characters or less", field, MaxDescriptionLength)
	}
	return desc, nil
}

// ValidateUserName trims and bounds a display name
func ValidateUserName(raw string) (string, error) { return validateName("name", raw) }

// ValidateUserDescription bounds a profile description; empty is allowed
func ValidateUserDescription(raw string) (string, error) {
	return validateDescription("description", raw)
}

// ValidateGroupName trims and bounds a group name
func ValidateGroupName(raw string) (string, error) { return validateName("group_name", raw) }

// ValidateGroupDescription bounds a group description
func ValidateGroupDescription(raw string) (string, error) {
	return validateDescription("group_description", raw)
}

// ValidateEventName trims and bounds an event name
func ValidateEventName(raw string) (string, error) { return validateName("event_name", raw) }

// ValidateEventDescription bounds an event description
func ValidateEventDescription(raw string) (string, error) {
	return validateDescription("event_description", raw)
}

// ValidateEmail parses an RFC 5322 address and normalises it to lower case.
// Display names ("Bob <bob@example.com>") are rejected.
func ValidateEmail(raw string) (EmailAddress, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", invalid("email", ReasonEmpty, "email is required")
	}
	if len(trimmed) > MaxEmailLength {
		return "", invalid("email", ReasonStringIsTooLong, "email must be %d characters or less", MaxEmailLength)
	}
	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Address != trimmed || addr.Name != "" {
		return "", invalid("email", ReasonInvalidEmail, "email is not a valid address")
	}
	return EmailAddress(strings.ToLower(addr.Address)), nil
}

// ValidateProfileImage accepts the default sentinel or an inline PNG data URL
func ValidateProfileImage(raw string) (ProfileImage, error) {
	if raw == string(DefaultProfileImage) {
		return DefaultProfileImage, nil
	}
	if len(raw) > MaxProfileImageLength {
		return "", invalid("profile_image", ReasonStringIsTooLong, "profile image must be %d characters or less", MaxProfileImageLength)
	}
	if !strings.HasPrefix(raw, ProfileImagePrefix) {
		return "", invalid("profile_image", ReasonInvalidDataURLPrefix, "profile image must start with %q", ProfileImagePrefix)
	}
	return ProfileImage(raw), nil
}

// ValidateTimezone accepts any IANA zone name the runtime can load
func ValidateTimezone(raw string) (string, error) {
	tz := strings.TrimSpace(raw)
	if tz == "" {
		return "", invalid("timezone", ReasonEmpty, "timezone is required")
	}
	if len(tz) > MaxTimezoneLength {
		return "", invalid("timezone", ReasonStringIsTooLong, "timezone must be %d characters or less", MaxTimezoneLength)
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return "", invalid("timezone", ReasonInvalidTimezone, "unknown timezone %q", tz)
	}
	return tz, nil
}

// ValidateVisibility parses a group visibility
func ValidateVisibility(raw string) (Visibility, error) {
	switch v := Visibility(raw); v {
	case VisibilityPublic, VisibilityUnlisted:
		return v, nil
	}
	return "", invalid("visibility", ReasonInvalidEnum, "visibility must be 'public' or 'unlisted'")
}

// ValidateDuration bounds an event duration given in minutes
func ValidateDuration(minutes int) (int, error) {
	if minutes < MinEventDurationMinutes || minutes > MaxEventDurationMinutes {
		return 0, invalid("duration", ReasonOutOfRange, "duration must be between %d and %d minutes", MinEventDurationMinutes, MaxEventDurationMinutes)
	}
	return minutes, nil
}

// ValidateMaxAttendees bounds an optional attendee cap; nil means no cap
func ValidateMaxAttendees(raw *int) (*int, error) {
	if raw == nil {
		return nil, nil
	}
	if *raw < MinMaxAttendees || *raw > MaxMaxAttendees {
		return nil, invalid("max_attendees", ReasonOutOfRange, "max attendees must be between %d and %d", MinMaxAttendees, MaxMaxAttendees)
	}
	limit := *raw
	return &limit, nil
}

// ValidateEventType checks the kind and its optional link or address
func ValidateEventType(raw EventType) (EventType, error) {
	switch raw.Kind {
	case EventKindOnline:
		if raw.Address != "" {
			return EventType{}, invalid("event_type", ReasonMismatchedEventKind, "online events cannot have an address")
		}
		link := strings.TrimSpace(raw.MeetingLink)
		if link == "" {
			return EventType{Kind: EventKindOnline}, nil
		}
		if len(link) > MaxMeetingLinkLength {
			return EventType{}, invalid("meeting_link", ReasonStringIsTooLong, "meeting link must be %d characters or less", MaxMeetingLinkLength)
		}
		u, err := url.Parse(link)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return EventType{}, invalid("meeting_link", ReasonInvalidURL, "meeting link must be an http or https URL")
		}
		return EventType{Kind: EventKindOnline, MeetingLink: link}, nil
	case EventKindInPerson:
		if raw.MeetingLink != "" {
			return EventType{}, invalid("event_type", ReasonMismatchedEventKind, "in person events cannot have a meeting link")
		}
		addr := strings.TrimSpace(raw.Address)
		if utf8.RuneCountInString(addr) > MaxAddressLength {
			return EventType{}, invalid("address", ReasonStringIsTooLong, "address must be %d characters or less", MaxAddressLength)
		}
		return EventType{Kind: EventKindInPerson, Address: addr}, nil
	}
	return EventType{}, invalid("event_type", ReasonInvalidEnum, "event kind must be 'online' or 'in_person'")
}

// ValidateCancellationReason bounds the free-text cancellation reason
func ValidateCancellationReason(raw string) (string, error) {
	reason := strings.TrimSpace(raw)
	if utf8.RuneCountInString(reason) > MaxCancellationReasonLen {
		return "", invalid("reason", ReasonStringIsTooLong, "reason must be %d characters or less", MaxCancellationReasonLen)
	}
	return reason, nil
}

// ValidateSearchText bounds a group search query
func ValidateSearchText(raw string) (string, error) {
	text := strings.TrimSpace(raw)
	if utf8.RuneCountInString(text) > MaxSearchTextLength {
		return "", invalid("search", ReasonStringIsTooLong, "search text must be %d characters or less", MaxSearchTextLength)
	}
	return text, nil
}

// EventInput is the untrusted event payload of create and edit requests
type EventInput struct {
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	Type            EventType `json:"type"`
	StartTime       time.Time `json:"start_time"`
	DurationMinutes int       `json:"duration_minutes"`
	MaxAttendees    *int      `json:"max_attendees,omitempty"`
}

// ValidateEventInput validates every field and returns the event fields it
// describes. Identity, creation time and attendees are left to the caller.
// The first failing field is reported; nothing is partially applied.
func ValidateEventInput(in EventInput) (Event, error) {
	name, err := ValidateEventName(in.Name)
	if err != nil {
		return Event{}, err
	}
	desc, err := ValidateEventDescription(in.Description)
	if err != nil {
		return Event{}, err
	}
	kind, err := ValidateEventType(in.Type)
	if err != nil {
		return Event{}, err
	}
	if in.StartTime.IsZero() {
		return Event{}, invalid("start_time", ReasonEmpty, "start time is required")
	}
	duration, err := ValidateDuration(in.DurationMinutes)
	if err != nil {
		return Event{}, err
	}
	limit, err := ValidateMaxAttendees(in.MaxAttendees)
	if err != nil {
		return Event{}, err
	}
	return Event{
		Name:            name,
		Description:     desc,
		Type:            kind,
		StartTime:       in.StartTime.UTC(),
		DurationMinutes: duration,
		MaxAttendees:    limit,
	}, nil
}
