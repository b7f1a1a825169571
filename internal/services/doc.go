// Package services implements the MyAnimeList API client used by the session broker.
//
// # Token Exchange
//
// [MALClient] satisfies the provider wire contract exactly: form-encoded POSTs
// to the v1 token endpoint carrying client credentials, redirect URI, the
// authorization code (or refresh token), the PKCE code verifier, and the grant
// type. Responses are JSON and must contain access_token, refresh_token and
// expires_in; a 2xx body missing any of them is reported as
// [shared.ErrMalformedResponse] rather than half-populated token material.
//
// # List Retrieval
//
// [MALClient.ListPage] fetches one page of a user's anime or manga list with
// bearer auth, requesting only completed entries sorted by score. Each page
// carries a paging.next URL; an empty next marks the last page. Pagination is
// driven by the sessions package, which owns the merge-and-cache policy.
//
// Outbound calls are paced with a [rate.Limiter] and bounded by the HTTP
// client's timeout; a timeout fails exactly as a non-2xx response would.
//
// # Error Handling
//
// No retries happen here. All failures propagate as typed errors from the
// shared package so callers decide on retry or surfacing:
//   - [shared.ErrExchangeFailed] : token endpoint rejected the request
//   - [shared.ErrMalformedResponse] : 2xx with an unusable body
//   - [shared.ErrAPIRequest] : list endpoint failure
package services
