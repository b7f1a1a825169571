package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/desertthunder/maltier/internal/models"
	"github.com/desertthunder/maltier/internal/shared"
)

func newSession(id string) *models.Session {
	return &models.Session{
		ID:           id,
		UserName:     "tester",
		AccessToken:  "A",
		RefreshToken: "R",
		ExpiresAt:    time.Now().Add(time.Hour).Truncate(time.Second),
	}
}

func openTempStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sessions.toml")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	return s, path
}

func TestStore(t *testing.T) {
	t.Run("Missing File Is Empty Store", func(t *testing.T) {
		s, _ := openTempStore(t)
		if s.Len() != 0 {
			t.Errorf("expected empty store, got %d sessions", s.Len())
		}
	})

	t.Run("Create And Reload", func(t *testing.T) {
		s, path := openTempStore(t)

		sess := newSession("abc123")
		sess.Lists = map[models.ListKind][]models.ListEntry{
			models.KindAnime: {{RemoteID: 1, PictureURL: "https://cdn.example/1.jpg", Score: 9}},
		}
		if err := s.Create(sess); err != nil {
			t.Fatalf("create failed: %v", err)
		}

		reloaded, err := Open(path)
		if err != nil {
			t.Fatalf("reload failed: %v", err)
		}

		got, err := reloaded.Get("abc123")
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if got.UserName != "tester" || got.AccessToken != "A" {
			t.Errorf("reloaded session mismatch: %+v", got)
		}
		if len(got.CachedList(models.KindAnime)) != 1 {
			t.Errorf("expected cached anime list to survive reload")
		}
		if !got.ExpiresAt.Equal(sess.ExpiresAt) {
			t.Errorf("expires_at drifted across reload: %v vs %v", got.ExpiresAt, sess.ExpiresAt)
		}
	})

	t.Run("Create Collision Is Fatal", func(t *testing.T) {
		s, _ := openTempStore(t)

		if err := s.Create(newSession("dup")); err != nil {
			t.Fatalf("create failed: %v", err)
		}

		err := s.Create(newSession("dup"))
		if !errors.Is(err, shared.ErrSessionIDCollision) {
			t.Errorf("expected ErrSessionIDCollision, got %v", err)
		}
	})

	t.Run("Delete Unknown Leaves File Untouched", func(t *testing.T) {
		s, path := openTempStore(t)
		if err := s.Create(newSession("keep")); err != nil {
			t.Fatalf("create failed: %v", err)
		}

		before, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read store file: %v", err)
		}

		if err := s.Delete("ghost"); !errors.Is(err, shared.ErrSessionNotFound) {
			t.Errorf("expected ErrSessionNotFound, got %v", err)
		}

		after, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read store file: %v", err)
		}
		if string(before) != string(after) {
			t.Error("failed delete must not rewrite the store file")
		}
	})

	t.Run("Delete Removes Session", func(t *testing.T) {
		s, _ := openTempStore(t)
		s.Create(newSession("gone"))

		if err := s.Delete("gone"); err != nil {
			t.Fatalf("delete failed: %v", err)
		}
		if _, err := s.Get("gone"); !errors.Is(err, shared.ErrSessionNotFound) {
			t.Errorf("expected ErrSessionNotFound after delete, got %v", err)
		}
	})

	t.Run("UpdateTokens", func(t *testing.T) {
		s, _ := openTempStore(t)
		s.Create(newSession("abc"))

		expiry := time.Now().Add(2 * time.Hour).Truncate(time.Second)
		if err := s.UpdateTokens("abc", "A2", "R2", expiry); err != nil {
			t.Fatalf("update failed: %v", err)
		}

		got, _ := s.Get("abc")
		if got.AccessToken != "A2" || got.RefreshToken != "R2" {
			t.Errorf("tokens not overwritten: %+v", got)
		}
		if !got.ExpiresAt.Equal(expiry) {
			t.Errorf("expiry not overwritten: %v", got.ExpiresAt)
		}
	})

	t.Run("SetList Detaches Caller Slice", func(t *testing.T) {
		s, _ := openTempStore(t)
		s.Create(newSession("abc"))

		entries := []models.ListEntry{{RemoteID: 7, Score: 8}}
		if err := s.SetList("abc", models.KindManga, entries); err != nil {
			t.Fatalf("set list failed: %v", err)
		}

		entries[0].RemoteID = 999
		got, _ := s.Get("abc")
		if got.CachedList(models.KindManga)[0].RemoteID != 7 {
			t.Error("store must not alias the caller's slice")
		}
	})

	t.Run("Get Returns Detached Copy", func(t *testing.T) {
		s, _ := openTempStore(t)
		s.Create(newSession("abc"))
		s.SetList("abc", models.KindAnime, []models.ListEntry{{RemoteID: 1, Score: 5}})

		got, _ := s.Get("abc")
		got.Lists[models.KindAnime][0].Score = 1

		again, _ := s.Get("abc")
		if again.Lists[models.KindAnime][0].Score != 5 {
			t.Error("mutating a returned session must not affect the store")
		}
	})

	t.Run("Unique IDs Under Load", func(t *testing.T) {
		s, _ := openTempStore(t)

		seen := make(map[string]bool)
		for i := 0; i < 1000; i++ {
			id := shared.GenerateSessionID()
			if seen[id] {
				t.Fatalf("duplicate session id generated: %s", id)
			}
			seen[id] = true
			if i < 25 { // each create rewrites the whole file; keep the persisted subset small
				if err := s.Create(newSession(id)); err != nil {
					t.Fatalf("create %d failed: %v", i, err)
				}
			}
		}
		if s.Len() != 25 {
			t.Errorf("expected 25 stored sessions, got %d", s.Len())
		}
	})

	t.Run("Corrupt File", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "sessions.toml")
		if err := os.WriteFile(path, []byte("not = [valid"), 0644); err != nil {
			t.Fatalf("failed to seed corrupt file: %v", err)
		}

		if _, err := Open(path); err == nil {
			t.Error("expected error opening corrupt store")
		}
	})

	t.Run("List Is Ordered", func(t *testing.T) {
		s, _ := openTempStore(t)
		for _, id := range []string{"c", "a", "b"} {
			if err := s.Create(newSession(id)); err != nil {
				t.Fatalf("create failed: %v", err)
			}
		}

		var order string
		for _, sess := range s.List() {
			order += sess.ID
		}
		if order != "abc" {
			t.Errorf("expected sessions ordered by id, got %s", order)
		}
	})
}

func TestStorePersistFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "sessions.toml")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}

	// Parent directory missing: temp file creation must fail cleanly.
	if err := s.Create(newSession("abc")); err == nil {
		t.Error("expected persist failure when parent directory is missing")
	}
}

func BenchmarkPersist(b *testing.B) {
	path := filepath.Join(b.TempDir(), "sessions.toml")
	s, err := Open(path)
	if err != nil {
		b.Fatalf("open failed: %v", err)
	}
	for i := 0; i < 50; i++ {
		if err := s.Create(newSession(fmt.Sprintf("s-%03d", i))); err != nil {
			b.Fatalf("seed failed: %v", err)
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := s.UpdateTokens("s-000", "A", "R", time.Now().Add(time.Hour)); err != nil {
			b.Fatalf("update failed: %v", err)
		}
	}
}
