// MyAnimeList API implementation of [TokenExchanger] and [ListService]
//
// Endpoint shapes based on https://myanimelist.net/apiconfig/references/api/v2
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/desertthunder/maltier/internal/models"
	"github.com/desertthunder/maltier/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	malAuthURL  = "https://myanimelist.net/v1/oauth2/authorize"
	malTokenURL = "https://myanimelist.net/v1/oauth2/token"
	malBaseURL  = "https://api.myanimelist.net/v2"
)

// MALNode is the catalog entry wrapped by each list item.
type MALNode struct {
	ID          int        `json:"id"`
	Title       string     `json:"title"`
	MainPicture MALPicture `json:"main_picture"`
}

// MALPicture represents an artwork resource.
type MALPicture struct {
	Medium string `json:"medium"`
	Large  string `json:"large"`
}

type malListStatus struct {
	Status string  `json:"status"`
	Score  float64 `json:"score"`
}

// MALListItem is one element of a paginated list response.
type MALListItem struct {
	Node       MALNode       `json:"node"`
	ListStatus malListStatus `json:"list_status"`
}

type malPaging struct {
	Next string `json:"next"`
}

// MALListResponse is a paginated page of a user's anime or manga list.
type MALListResponse struct {
	Data   []MALListItem `json:"data"`
	Paging malPaging     `json:"paging"`
}

// MALClient talks to the MyAnimeList OAuth and list endpoints.
//
// It performs no retries; every failure propagates typed to the caller.
type MALClient struct {
	oauth      *oauth2.Config
	creds      shared.MALConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	pageSize   int
	tokenURL   string
	baseURL    string
}

// NewMALClient creates a MAL API client from the given credentials and fetch settings.
//
// A nil httpClient gets a default client bounded by the configured timeout.
func NewMALClient(creds shared.MALConfig, fetch shared.FetchConfig, httpClient *http.Client) (*MALClient, error) {
	if creds.ClientID == "" {
		return nil, fmt.Errorf("%w: client_id", shared.ErrMissingCredentials)
	}
	if creds.ClientSecret == "" {
		return nil, fmt.Errorf("%w: client_secret", shared.ErrMissingCredentials)
	}
	if creds.RedirectURI == "" {
		return nil, fmt.Errorf("%w: redirect_uri", shared.ErrMissingCredentials)
	}

	pageSize := fetch.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}
	if pageSize > 1000 {
		pageSize = 1000
	}

	limit := fetch.RateLimit
	if limit <= 0 {
		limit = 3.0
	}

	if httpClient == nil {
		timeout := time.Duration(fetch.TimeoutSeconds) * time.Second
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	oauthCfg := &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		RedirectURL:  creds.RedirectURI,
		Endpoint: oauth2.Endpoint{
			AuthURL:  malAuthURL,
			TokenURL: malTokenURL,
		},
	}

	return &MALClient{
		oauth:      oauthCfg,
		creds:      creds,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(limit), 1),
		pageSize:   pageSize,
		tokenURL:   malTokenURL,
		baseURL:    malBaseURL,
	}, nil
}

// AuthCodeURL returns the provider authorization URL for user login.
//
// MAL only supports the plain code challenge method.
func (c *MALClient) AuthCodeURL(state, challenge string) string {
	return c.oauth.AuthCodeURL(state,
		oauth2.SetAuthURLParam("code_challenge", challenge),
		oauth2.SetAuthURLParam("code_challenge_method", "plain"),
	)
}

// ExchangeCode trades an authorization code and PKCE verifier for tokens.
func (c *MALClient) ExchangeCode(ctx context.Context, code, verifier string) (*TokenResponse, error) {
	form := url.Values{
		"client_id":     {c.creds.ClientID},
		"client_secret": {c.creds.ClientSecret},
		"redirect_uri":  {c.creds.RedirectURI},
		"code":          {code},
		"code_verifier": {verifier},
		"grant_type":    {"authorization_code"},
	}
	return c.tokenRequest(ctx, form)
}

// Refresh trades a refresh token for fresh token material.
func (c *MALClient) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	form := url.Values{
		"client_id":     {c.creds.ClientID},
		"client_secret": {c.creds.ClientSecret},
		"refresh_token": {refreshToken},
		"grant_type":    {"refresh_token"},
	}
	return c.tokenRequest(ctx, form)
}

func (c *MALClient) tokenRequest(ctx context.Context, form url.Values) (*TokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrExchangeFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", shared.ErrExchangeFailed, resp.StatusCode)
	}

	var token TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrMalformedResponse, err)
	}

	switch {
	case token.AccessToken == "":
		return nil, fmt.Errorf("%w: missing access_token", shared.ErrMalformedResponse)
	case token.RefreshToken == "":
		return nil, fmt.Errorf("%w: missing refresh_token", shared.ErrMalformedResponse)
	case token.ExpiresIn <= 0:
		return nil, fmt.Errorf("%w: missing expires_in", shared.ErrMalformedResponse)
	}

	return &token, nil
}

// Identity retrieves the authenticated user's profile.
func (c *MALClient) Identity(ctx context.Context, accessToken string) (*Identity, error) {
	var identity Identity
	if err := c.doRequest(ctx, accessToken, c.baseURL+"/users/@me", &identity); err != nil {
		return nil, err
	}
	return &identity, nil
}

// ListPage fetches a single page of the user's list for the given kind.
//
// An empty pageURL builds the initial request: completed entries only, sorted
// by score, with the configured page size. Subsequent pages follow the
// provider-supplied paging.next URL verbatim.
func (c *MALClient) ListPage(ctx context.Context, accessToken string, kind models.ListKind, pageURL string) (*ListPage, error) {
	if pageURL == "" {
		query := url.Values{
			"status": {"completed"},
			"sort":   {"list_score"},
			"limit":  {fmt.Sprintf("%d", c.pageSize)},
			"fields": {"list_status"},
		}
		pageURL = fmt.Sprintf("%s/users/@me/%slist?%s", c.baseURL, kind, query.Encode())
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	var response MALListResponse
	if err := c.doRequest(ctx, accessToken, pageURL, &response); err != nil {
		return nil, err
	}

	page := &ListPage{Next: response.Paging.Next}
	for _, item := range response.Data {
		page.Entries = append(page.Entries, models.ListEntry{
			RemoteID:   item.Node.ID,
			PictureURL: item.Node.MainPicture.Medium,
			Score:      item.ListStatus.Score,
		})
	}

	return page, nil
}

// doRequest performs an authenticated GET against the MAL API.
func (c *MALClient) doRequest(ctx context.Context, accessToken, apiURL string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

var (
	_ TokenExchanger = (*MALClient)(nil)
	_ ListService    = (*MALClient)(nil)
)
