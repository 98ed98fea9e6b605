// Package protocol defines the messages exchanged between browser clients
// and the backend over the WebSocket transport.
//
// Both directions are closed sets: ToBackend and ToFrontend are interfaces
// with an unexported marker method, so only types declared in this package
// can satisfy them. On the wire every message is an envelope:
//
//	{"type": "JoinEvent", "data": {"group_id": "a1b2c3d4e5", "event_id": 3}}
//
// Decode maps the type tag back onto the concrete request struct. Unknown
// tags are reported as ErrUnknownType; the transport logs and drops them.
//
// Domain failures travel inside a Result as an Error with a stable Code.
// Validation and authorization failures never produce a response at all.
package protocol
