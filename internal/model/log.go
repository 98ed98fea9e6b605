package model

import "time"

// LogKind classifies admin log entries
type LogKind string

const (
	LogUntrustedCheckFailed   LogKind = "untrusted_check_failed"
	LogEmailSent              LogKind = "email_sent"
	LogEmailFailed            LogKind = "email_failed"
	LogLoginEmailRateLimited  LogKind = "login_email_rate_limited"
	LogDeleteEmailRateLimited LogKind = "delete_email_rate_limited"
)

// MaxLogEntries bounds the in-memory admin log; the oldest entries go first
const MaxLogEntries = 5000

// LogEntry is one admin-visible record
type LogEntry struct {
	Time      time.Time    `json:"time"`
	Kind      LogKind      `json:"kind"`
	SessionID SessionID    `json:"session_id,omitempty"`
	UserID    UserID       `json:"user_id,omitempty"`
	Email     EmailAddress `json:"email,omitempty"`
	Request   string       `json:"request,omitempty"`
	Detail    string       `json:"detail,omitempty"`
}

// IsError reports whether the entry records a failure
func (e LogEntry) IsError() bool {
	return e.Kind != LogEmailSent
}

// AppendLog appends entry and trims the front past MaxLogEntries
func AppendLog(entries []LogEntry, entry LogEntry) []LogEntry {
	entries = append(entries, entry)
	if over := len(entries) - MaxLogEntries; over > 0 {
		entries = append([]LogEntry(nil), entries[over:]...)
	}
	return entries
}
