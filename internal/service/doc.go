// Package service implements the Gather backend: the authoritative state,
// the request router and the processing loop that serialises access to it.
//
// # Backend
//
// Backend.Update is the only entry point that changes state. It takes one
// Message (a connection change, a client request, a timer tick or an email
// outcome) and returns the Effects to execute afterwards:
//
//	effects := backend.Update(service.FromClient{
//	    SessionID:    sessionID,
//	    ConnectionID: connectionID,
//	    Request:      protocol.JoinEvent{GroupID: groupID, EventID: 3},
//	}, time.Now())
//
// Update never blocks and performs no I/O, which keeps it deterministic in
// tests.
//
// # Request gating
//
// Every request kind has one handler. Handlers gate on the caller:
//
//   - anonymous: GetGroup, GetUser, CheckLogin, LoginWithToken, GetLoginEmail,
//     SearchGroups, DeleteUser
//   - logged in: profile changes, CreateGroup, GetMyGroups, JoinEvent, ...
//   - owner or admin: group and event management
//   - admin: AdminDeleteGroup, AdminGetLogs
//
// A failed gate or invalid input is recorded in the admin log and the
// request gets no response. Domain failures (a full event, an overlapping
// slot, an expired token) come back inside the response Result.
//
// # Loop
//
// Loop owns a Backend and applies posted messages one at a time on a single
// goroutine. Responses go out through an Outbox (the Hub in production);
// emails are rendered and sent on their own goroutine and their outcome is
// posted back as EmailCompleted. Read runs a closure between two messages
// for consistent snapshots.
package service
