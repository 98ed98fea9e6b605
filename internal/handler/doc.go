// Package handler provides the HTTP surface of the Gather backend.
//
// Almost everything happens over one WebSocket per browser tab:
//
//   - GET /v1/ws: upgrades the connection, resolves the session from a
//     signed cookie (minting one when needed) and relays JSON frames between
//     the socket and the processing loop
//   - GET /v1/groups/{groupId}/calendar.ics: iCalendar export of a group
//   - GET /health: liveness plus a round trip through the loop
//
// # Frames
//
// Client frames are decoded with protocol.Decode; frames that fail to decode
// are logged and dropped. Outbound frames are queued per connection by the
// service.Hub and written by a dedicated goroutine that also keeps the socket
// alive with pings.
//
// # Errors
//
// The HTTP endpoints answer failures with RFC 9457 Problem Details, see
// MapDomainError. WebSocket requests never get HTTP errors: domain failures
// travel inside the response Result.
package handler
