package services

import (
	"context"

	"github.com/desertthunder/maltier/internal/models"
)

// TokenResponse is the identity provider's token payload, shared by the
// authorization-code and refresh-token grants.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type,omitempty"`
}

// Identity is the authenticated user's profile, used only for a display name.
type Identity struct {
	Name string `json:"name"`
}

// ListPage is one page of a paginated remote list. An empty Next marks the
// final page.
type ListPage struct {
	Entries []models.ListEntry
	Next    string
}

// TokenExchanger performs the two token-exchange flows against the identity provider.
type TokenExchanger interface {
	// ExchangeCode trades an authorization code plus PKCE verifier for tokens.
	ExchangeCode(ctx context.Context, code, verifier string) (*TokenResponse, error)

	// Refresh trades a refresh token for fresh token material.
	Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error)

	// Identity fetches the authenticated user's profile.
	Identity(ctx context.Context, accessToken string) (*Identity, error)
}

// ListService retrieves pages of a user's remote list.
type ListService interface {
	// ListPage fetches a single page. An empty pageURL requests the first
	// page for the given kind; otherwise pageURL is the provider-supplied
	// next-page URL.
	ListPage(ctx context.Context, accessToken string, kind models.ListKind, pageURL string) (*ListPage, error)
}
