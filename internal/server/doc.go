// Package server provides HTTP routing, middleware, and the request handlers
// for the session broker.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first),
// following the standard Go pattern. The [BasicRouter] implementation uses
// [http.ServeMux] internally with method-qualified patterns.
//
// # Handlers
//
// [API] exposes the broker surface:
//
//	POST /auth/begin     register a PKCE verifier, get state + authorize URL
//	GET  /auth/callback  provider redirect target, creates the session
//	POST /auth/logout    remove a session
//	GET  /list           cached (or freshly paginated) anime/manga list
//	GET  /health         liveness and session count
//
// The handlers do transport work only: they parse already-shaped parameters,
// call into the sessions package, and map its typed errors onto status codes
// (400 malformed input, 401 refresh rejected, 403 invalid state, 404 unknown
// session, 502 upstream failure). No core policy lives here.
package server
