package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/maltier/internal/models"
	"github.com/desertthunder/maltier/internal/sessions"
	"github.com/desertthunder/maltier/internal/shared"
)

// AuthURLBuilder builds the provider authorization URL for a state token and
// PKCE challenge.
type AuthURLBuilder interface {
	AuthCodeURL(state, challenge string) string
}

// API holds the broker's HTTP handlers.
type API struct {
	manager *sessions.Manager
	fetcher *sessions.Fetcher
	auth    AuthURLBuilder
	logger  *log.Logger

	// OnSession, when set, is invoked with each session id created through
	// the callback endpoint. The CLI login flow uses it to learn when the
	// browser round trip has finished.
	OnSession func(sessionID string)
}

// NewAPI creates the handler set for the given broker components.
func NewAPI(manager *sessions.Manager, fetcher *sessions.Fetcher, auth AuthURLBuilder, logger *log.Logger) *API {
	return &API{manager: manager, fetcher: fetcher, auth: auth, logger: logger}
}

// Register wires the broker endpoints onto the router.
func (a *API) Register(r Router) {
	r.Handle("POST /auth/begin", http.HandlerFunc(a.handleBegin))
	r.Handle("GET /auth/callback", http.HandlerFunc(a.handleCallback))
	r.Handle("POST /auth/logout", http.HandlerFunc(a.handleLogout))
	r.Handle("GET /list", http.HandlerFunc(a.handleList))
	r.Handle("GET /health", http.HandlerFunc(a.handleHealth))
}

type beginRequest struct {
	CodeVerifier  string `json:"code_verifier"`
	CodeChallenge string `json:"code_challenge"`
}

type beginResponse struct {
	State        string `json:"state"`
	AuthorizeURL string `json:"authorize_url"`
}

// handleBegin registers a PKCE verifier and returns the state token plus the
// provider authorization URL the client should open.
func (a *API) handleBegin(w http.ResponseWriter, r *http.Request) {
	var req beginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid JSON body", shared.ErrInvalidInput))
		return
	}

	// Plain challenge method: the challenge defaults to the verifier itself.
	challenge := req.CodeChallenge
	if challenge == "" {
		challenge = req.CodeVerifier
	}

	state, err := a.manager.BeginAuthorization(req.CodeVerifier)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, beginResponse{
		State:        state,
		AuthorizeURL: a.auth.AuthCodeURL(state, challenge),
	})
}

type callbackResponse struct {
	SessionID string `json:"session_id"`
}

// handleCallback is the provider redirect target. It consumes the state's
// challenge, exchanges the authorization code, and creates the session.
func (a *API) handleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if errCode := q.Get("error"); errCode != "" {
		writeError(w, fmt.Errorf("%w: provider returned %q", shared.ErrInvalidState, errCode))
		return
	}

	code, state := q.Get("code"), q.Get("state")
	if code == "" || state == "" {
		writeError(w, fmt.Errorf("%w: code and state are required", shared.ErrInvalidInput))
		return
	}

	sessionID, err := a.manager.CompleteAuthorization(r.Context(), code, state)
	if err != nil {
		writeError(w, err)
		return
	}

	if a.OnSession != nil {
		a.OnSession(sessionID)
	}

	writeJSON(w, http.StatusOK, callbackResponse{SessionID: sessionID})
}

type logoutRequest struct {
	SessionID string `json:"session_id"`
}

// handleLogout removes a session and its persisted tokens.
func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req logoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid JSON body", shared.ErrInvalidInput))
		return
	}
	if req.SessionID == "" {
		writeError(w, fmt.Errorf("%w: session_id is required", shared.ErrInvalidInput))
		return
	}

	if err := a.manager.Logout(req.SessionID); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type listResponse struct {
	Kind    models.ListKind    `json:"kind"`
	Count   int                `json:"count"`
	Entries []models.ListEntry `json:"entries"`
}

// handleList returns a session's completed list for the given kind, fetching
// from the provider when the cache is empty or refresh=true.
func (a *API) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	sessionID := q.Get("session_id")
	if sessionID == "" {
		writeError(w, fmt.Errorf("%w: session_id is required", shared.ErrInvalidInput))
		return
	}

	kind, err := models.ParseListKind(q.Get("kind"))
	if err != nil {
		writeError(w, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err))
		return
	}

	force := q.Get("refresh") == "true"

	entries, err := a.fetcher.GetList(r.Context(), sessionID, kind, force)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, listResponse{Kind: kind, Count: len(entries), Entries: entries})
}

// handleHealth reports liveness and the number of known sessions.
func (a *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": len(a.manager.Sessions()),
	})
}

// statusFor maps broker errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrRefreshFailed):
		return http.StatusUnauthorized
	case errors.Is(err, shared.ErrInvalidState):
		return http.StatusForbidden
	case errors.Is(err, shared.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrExchangeFailed),
		errors.Is(err, shared.ErrListFetchFailed),
		errors.Is(err, shared.ErrMalformedResponse),
		errors.Is(err, shared.ErrAPIRequest):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
}
