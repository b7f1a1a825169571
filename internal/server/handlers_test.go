package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/maltier/internal/challenge"
	"github.com/desertthunder/maltier/internal/models"
	"github.com/desertthunder/maltier/internal/services"
	"github.com/desertthunder/maltier/internal/sessions"
	"github.com/desertthunder/maltier/internal/shared"
	"github.com/desertthunder/maltier/internal/store"
)

// fakeProvider doubles as token exchanger, list service, and URL builder.
type fakeProvider struct {
	exchangeErr error
	listErr     error
	entries     []models.ListEntry
	listCalls   int
}

func (f *fakeProvider) ExchangeCode(_ context.Context, _, _ string) (*services.TokenResponse, error) {
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	return &services.TokenResponse{AccessToken: "A", RefreshToken: "R", ExpiresIn: 3600}, nil
}

func (f *fakeProvider) Refresh(_ context.Context, _ string) (*services.TokenResponse, error) {
	return &services.TokenResponse{AccessToken: "A2", RefreshToken: "R2", ExpiresIn: 3600}, nil
}

func (f *fakeProvider) Identity(_ context.Context, _ string) (*services.Identity, error) {
	return &services.Identity{Name: "tester"}, nil
}

func (f *fakeProvider) ListPage(_ context.Context, _ string, _ models.ListKind, _ string) (*services.ListPage, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return &services.ListPage{Entries: f.entries}, nil
}

func (f *fakeProvider) AuthCodeURL(state, challenge string) string {
	return fmt.Sprintf("https://example.test/authorize?state=%s&code_challenge=%s", state, challenge)
}

func newTestAPI(t *testing.T, provider *fakeProvider) (*API, *BasicRouter, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "sessions.toml"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}

	logger := shared.NewLogger(io.Discard)
	manager := sessions.NewManager(sessions.ManagerOpts{
		Challenges: challenge.NewStore(time.Minute),
		Store:      st,
		OAuth:      provider,
		Logger:     logger,
	})
	fetcher := sessions.NewFetcher(manager, st, provider, logger)

	api := NewAPI(manager, fetcher, provider, logger)
	router := NewBasicRouter()
	api.Register(router)
	return api, router, st
}

func doJSON(t *testing.T, router *BasicRouter, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, target, &buf)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// authorize drives the begin + callback round trip and returns the session id.
func authorize(t *testing.T, router *BasicRouter) string {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/auth/begin", beginRequest{CodeVerifier: "v1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("begin returned %d: %s", rec.Code, rec.Body)
	}

	var begin beginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &begin); err != nil {
		t.Fatalf("failed to decode begin response: %v", err)
	}

	rec = doJSON(t, router, http.MethodGet, "/auth/callback?code=c1&state="+begin.State, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("callback returned %d: %s", rec.Code, rec.Body)
	}

	var cb callbackResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &cb); err != nil {
		t.Fatalf("failed to decode callback response: %v", err)
	}
	return cb.SessionID
}

func TestBeginEndpoint(t *testing.T) {
	t.Run("Returns State And Authorize URL", func(t *testing.T) {
		_, router, _ := newTestAPI(t, &fakeProvider{})

		rec := doJSON(t, router, http.MethodPost, "/auth/begin", beginRequest{CodeVerifier: "v1"})
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
		}

		var resp beginResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.State == "" {
			t.Error("expected a state token")
		}
		if !strings.Contains(resp.AuthorizeURL, "state="+resp.State) {
			t.Errorf("authorize URL missing state: %s", resp.AuthorizeURL)
		}
		if !strings.Contains(resp.AuthorizeURL, "code_challenge=v1") {
			t.Errorf("plain method must default challenge to the verifier: %s", resp.AuthorizeURL)
		}
	})

	t.Run("Invalid Body", func(t *testing.T) {
		_, router, _ := newTestAPI(t, &fakeProvider{})

		req := httptest.NewRequest(http.MethodPost, "/auth/begin", strings.NewReader("{not json"))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("Empty Verifier", func(t *testing.T) {
		_, router, _ := newTestAPI(t, &fakeProvider{})

		rec := doJSON(t, router, http.MethodPost, "/auth/begin", beginRequest{})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d: %s", rec.Code, rec.Body)
		}
	})
}

func TestCallbackEndpoint(t *testing.T) {
	t.Run("Creates Session And Fires Hook", func(t *testing.T) {
		api, router, st := newTestAPI(t, &fakeProvider{})

		var hooked string
		api.OnSession = func(id string) { hooked = id }

		sessionID := authorize(t, router)
		if hooked != sessionID {
			t.Errorf("hook got %q, callback returned %q", hooked, sessionID)
		}
		if _, err := st.Get(sessionID); err != nil {
			t.Errorf("session not persisted: %v", err)
		}
	})

	t.Run("Missing Parameters", func(t *testing.T) {
		_, router, _ := newTestAPI(t, &fakeProvider{})

		rec := doJSON(t, router, http.MethodGet, "/auth/callback?code=c1", nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("Unknown State", func(t *testing.T) {
		_, router, _ := newTestAPI(t, &fakeProvider{})

		rec := doJSON(t, router, http.MethodGet, "/auth/callback?code=c1&state=ghost", nil)
		if rec.Code != http.StatusForbidden {
			t.Errorf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("Provider Error Parameter", func(t *testing.T) {
		_, router, _ := newTestAPI(t, &fakeProvider{})

		rec := doJSON(t, router, http.MethodGet, "/auth/callback?error=access_denied", nil)
		if rec.Code != http.StatusForbidden {
			t.Errorf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("Exchange Failure Maps To 502", func(t *testing.T) {
		provider := &fakeProvider{
			exchangeErr: fmt.Errorf("%w: status 401", shared.ErrExchangeFailed),
		}
		_, router, _ := newTestAPI(t, provider)

		rec := doJSON(t, router, http.MethodPost, "/auth/begin", beginRequest{CodeVerifier: "v1"})
		var begin beginResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &begin); err != nil {
			t.Fatalf("failed to decode begin response: %v", err)
		}

		rec = doJSON(t, router, http.MethodGet, "/auth/callback?code=c1&state="+begin.State, nil)
		if rec.Code != http.StatusBadGateway {
			t.Errorf("expected 502, got %d", rec.Code)
		}
	})
}

func TestLogoutEndpoint(t *testing.T) {
	_, router, st := newTestAPI(t, &fakeProvider{})
	sessionID := authorize(t, router)

	rec := doJSON(t, router, http.MethodPost, "/auth/logout", logoutRequest{SessionID: sessionID})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body)
	}
	if st.Len() != 0 {
		t.Errorf("expected empty store after logout, got %d", st.Len())
	}

	rec = doJSON(t, router, http.MethodPost, "/auth/logout", logoutRequest{SessionID: sessionID})
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for repeated logout, got %d", rec.Code)
	}
}

func TestListEndpoint(t *testing.T) {
	t.Run("Fetches And Caches", func(t *testing.T) {
		provider := &fakeProvider{
			entries: []models.ListEntry{{RemoteID: 1, Score: 9}, {RemoteID: 2, Score: 7}},
		}
		_, router, _ := newTestAPI(t, provider)
		sessionID := authorize(t, router)

		rec := doJSON(t, router, http.MethodGet, "/list?session_id="+sessionID+"&kind=anime", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
		}

		var resp listResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Count != 2 || len(resp.Entries) != 2 {
			t.Errorf("expected 2 entries, got %+v", resp)
		}

		callsAfterFirst := provider.listCalls
		rec = doJSON(t, router, http.MethodGet, "/list?session_id="+sessionID+"&kind=anime", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("second request returned %d", rec.Code)
		}
		if provider.listCalls != callsAfterFirst {
			t.Error("cached request must not hit the provider")
		}
	})

	t.Run("Refresh Flag Bypasses Cache", func(t *testing.T) {
		provider := &fakeProvider{entries: []models.ListEntry{{RemoteID: 1, Score: 9}}}
		_, router, _ := newTestAPI(t, provider)
		sessionID := authorize(t, router)

		doJSON(t, router, http.MethodGet, "/list?session_id="+sessionID+"&kind=anime", nil)
		callsAfterFirst := provider.listCalls

		rec := doJSON(t, router, http.MethodGet, "/list?session_id="+sessionID+"&kind=anime&refresh=true", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("refresh request returned %d", rec.Code)
		}
		if provider.listCalls <= callsAfterFirst {
			t.Error("refresh=true must hit the provider")
		}
	})

	t.Run("Unknown Session", func(t *testing.T) {
		_, router, _ := newTestAPI(t, &fakeProvider{})

		rec := doJSON(t, router, http.MethodGet, "/list?session_id=ghost&kind=anime", nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("Invalid Kind", func(t *testing.T) {
		_, router, _ := newTestAPI(t, &fakeProvider{})
		sessionID := authorize(t, router)

		rec := doJSON(t, router, http.MethodGet, "/list?session_id="+sessionID+"&kind=books", nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("Upstream Failure Maps To 502", func(t *testing.T) {
		provider := &fakeProvider{
			listErr: fmt.Errorf("%w: status 500", shared.ErrAPIRequest),
		}
		_, router, _ := newTestAPI(t, provider)
		sessionID := authorize(t, router)

		rec := doJSON(t, router, http.MethodGet, "/list?session_id="+sessionID+"&kind=anime", nil)
		if rec.Code != http.StatusBadGateway {
			t.Errorf("expected 502, got %d", rec.Code)
		}
	})
}

func TestHealthEndpoint(t *testing.T) {
	_, router, _ := newTestAPI(t, &fakeProvider{})
	authorize(t, router)

	rec := doJSON(t, router, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("expected status ok, got %v", resp["status"])
	}
	if resp["sessions"] != float64(1) {
		t.Errorf("expected 1 session, got %v", resp["sessions"])
	}
}

func TestMiddleware(t *testing.T) {
	t.Run("Applied In Reverse Order", func(t *testing.T) {
		router := NewBasicRouter()
		var order []string
		tag := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		router.Use(tag("first"), tag("second"))
		router.Handle("GET /ping", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

		if len(order) != 2 || order[0] != "first" || order[1] != "second" {
			t.Errorf("unexpected middleware order: %v", order)
		}
	})

	t.Run("Recovery Converts Panic To 500", func(t *testing.T) {
		router := NewBasicRouter()
		router.Use(RecoveryMiddleware(shared.NewLogger(io.Discard)))
		router.Handle("GET /boom", http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("boom")
		}))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
	})
}
