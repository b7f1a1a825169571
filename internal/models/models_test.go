package models

import (
	"testing"
	"time"
)

func TestParseListKind(t *testing.T) {
	if kind, err := ParseListKind("anime"); err != nil || kind != KindAnime {
		t.Errorf("ParseListKind(anime) = %v, %v", kind, err)
	}
	if kind, err := ParseListKind("manga"); err != nil || kind != KindManga {
		t.Errorf("ParseListKind(manga) = %v, %v", kind, err)
	}
	for _, invalid := range []string{"", "books", "Anime"} {
		if _, err := ParseListKind(invalid); err == nil {
			t.Errorf("ParseListKind(%q) should fail", invalid)
		}
	}
}

func TestSessionExpired(t *testing.T) {
	now := time.Now()
	sess := &Session{ExpiresAt: now}

	if !sess.Expired(now) {
		t.Error("expiry at exactly now must count as expired")
	}
	if sess.Expired(now.Add(-time.Second)) {
		t.Error("future expiry must not count as expired")
	}
	if !sess.Expired(now.Add(time.Second)) {
		t.Error("past expiry must count as expired")
	}
}

func TestSessionClone(t *testing.T) {
	sess := &Session{
		ID: "abc",
		Lists: map[ListKind][]ListEntry{
			KindAnime: {{RemoteID: 1, Score: 9}},
		},
	}

	clone := sess.Clone()
	clone.Lists[KindAnime][0].Score = 1
	clone.Lists[KindManga] = []ListEntry{{RemoteID: 2}}

	if sess.Lists[KindAnime][0].Score != 9 {
		t.Error("clone must detach cached entry slices")
	}
	if _, ok := sess.Lists[KindManga]; ok {
		t.Error("clone must detach the list map")
	}
}

func TestSessionValidate(t *testing.T) {
	valid := &Session{ID: "abc", AccessToken: "A", RefreshToken: "R"}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid session rejected: %v", err)
	}

	for name, sess := range map[string]*Session{
		"missing id":            {AccessToken: "A", RefreshToken: "R"},
		"missing access token":  {ID: "abc", RefreshToken: "R"},
		"missing refresh token": {ID: "abc", AccessToken: "A"},
	} {
		if err := sess.Validate(); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}
