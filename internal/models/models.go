package models

import (
	"fmt"
	"time"
)

// ListKind identifies which remote list a cached sequence belongs to.
type ListKind string

const (
	KindAnime ListKind = "anime"
	KindManga ListKind = "manga"
)

// ParseListKind validates a raw kind string from the HTTP or CLI layer.
func ParseListKind(s string) (ListKind, error) {
	switch ListKind(s) {
	case KindAnime:
		return KindAnime, nil
	case KindManga:
		return KindManga, nil
	default:
		return "", fmt.Errorf("unknown list kind %q", s)
	}
}

// ListEntry is a single rated entry from a user's remote list.
//
// Entries are immutable once fetched; the slice for a session accumulates
// page by page in provider order.
type ListEntry struct {
	RemoteID   int     `toml:"remote_id" json:"remote_id"`
	PictureURL string  `toml:"picture_url" json:"picture_url"`
	Score      float64 `toml:"score" json:"score"`
}

// Session binds a session id to a user's current token material and cached list data.
type Session struct {
	ID           string                   `toml:"id" json:"id"`
	UserName     string                   `toml:"user_name" json:"user_name"`
	AccessToken  string                   `toml:"access_token" json:"-"`
	RefreshToken string                   `toml:"refresh_token" json:"-"`
	ExpiresAt    time.Time                `toml:"expires_at" json:"expires_at"`
	Lists        map[ListKind][]ListEntry `toml:"lists" json:"lists,omitempty"`
}

// Expired reports whether the access token is unusable at the given instant.
//
// A token valid until exactly now counts as expired, favoring a pre-emptive
// refresh over a request failing mid-flight.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// CachedList returns the cached entries for kind, or nil if never fetched.
func (s *Session) CachedList(kind ListKind) []ListEntry {
	if s.Lists == nil {
		return nil
	}
	return s.Lists[kind]
}

// Clone returns a deep copy of the session, detaching cached list slices so
// callers cannot mutate store-owned state.
func (s *Session) Clone() *Session {
	c := *s
	if s.Lists != nil {
		c.Lists = make(map[ListKind][]ListEntry, len(s.Lists))
		for k, v := range s.Lists {
			entries := make([]ListEntry, len(v))
			copy(entries, v)
			c.Lists[k] = entries
		}
	}
	return &c
}

// Validate checks the session record before persistence.
func (s *Session) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("session id is empty")
	}
	if s.AccessToken == "" || s.RefreshToken == "" {
		return fmt.Errorf("session %s is missing token material", s.ID)
	}
	return nil
}
