// Package model defines the domain values of the Gather backend.
//
// The model package contains users, groups, events, the admin log, the
// validation layer that turns untrusted client input into domain values,
// and the pure group/event operations that enforce scheduling and capacity
// rules. Nothing in this package performs I/O or holds mutable shared state.
//
// # Domain Entities
//
//   - User: a person identified by an opaque short id and an email address
//   - Group: owner, name, description, visibility and the group's events
//   - Event: a scheduled gathering inside a group with an attendee set
//   - LogEntry: admin-visible record of trust-check failures, email results
//     and rate-limit rejections
//
// # Group Operations
//
// Group values are treated as immutable. Every operation returns a new
// group and leaves its input untouched:
//
//	next, id, err := model.AddEvent(event, group)
//	if err != nil {
//	    var overlap *model.OverlapError
//	    if errors.As(err, &overlap) {
//	        // overlap.Conflicts lists every clashing event
//	    }
//	}
//
// # Validation
//
// Validators are pure and deterministic. They return the validated value or
// a *ValidationError naming the field and the reason:
//
//	name, err := model.ValidateGroupName("  Run Club ")
//	// name == "Run Club"
//
// # Error Types
//
// Domain sentinel errors live in errors.go and are compared with errors.Is.
// HTTP-facing failures use RFC 9457 Problem Details.
package model
