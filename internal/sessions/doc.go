// Package sessions orchestrates the session lifecycle: PKCE authorization,
// token refresh, logout, and cached list retrieval.
//
// # Authorization
//
// [Manager.BeginAuthorization] issues an unguessable state token and parks the
// client's code verifier in the challenge store. The matching provider
// callback lands in [Manager.CompleteAuthorization], which consumes the
// challenge (single use; a replayed callback fails with
// [shared.ErrInvalidState]), exchanges the code, and persists a new session
// under a freshly generated 128-bit id.
//
// # Token Refresh
//
// [Manager.ResolveAccessToken] compares expiry against a single clock read and
// refreshes expired tokens before returning. Concurrent resolves for the same
// session collapse into one in-flight refresh via [singleflight.Group], so a
// refresh token is never redeemed twice in parallel. A failed refresh leaves
// the session in place; forcing logout is the caller's decision.
//
// # List Retrieval
//
// [Fetcher.GetList] serves the session's cached list when present, otherwise
// walks the provider's pagination to the last page and commits the merged
// result all-or-nothing: a failure on any page leaves the cache untouched.
package sessions
