// Package middleware provides the HTTP middleware chain in front of the
// websocket endpoint, the calendar export and the health check.
//
//	handler := middleware.Chain(mux,
//		middleware.Recovery,
//		middleware.RequestID,
//		middleware.Logger(logger),
//		middleware.CORS(origins),
//		middleware.RateLimit(limiter),
//		middleware.Compress,
//	)
//
// Every wrapper keeps http.Hijacker working so the websocket upgrade can
// take over the connection, and Compress leaves upgrade requests alone.
package middleware
