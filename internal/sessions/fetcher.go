package sessions

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/maltier/internal/models"
	"github.com/desertthunder/maltier/internal/services"
	"github.com/desertthunder/maltier/internal/shared"
	"github.com/desertthunder/maltier/internal/store"
)

// Fetcher retrieves a session's full remote list through cursor pagination and
// caches the merged result.
type Fetcher struct {
	manager *Manager
	store   *store.Store
	lists   services.ListService
	logger  *log.Logger
}

// NewFetcher creates a list fetcher sharing the manager's store.
func NewFetcher(manager *Manager, st *store.Store, lists services.ListService, logger *log.Logger) *Fetcher {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Fetcher{manager: manager, store: st, lists: lists, logger: logger}
}

// GetList returns the session's list of the given kind.
//
// A non-empty cache is returned as-is unless force is set. On a miss the
// fetcher resolves a fresh access token, accumulates every page in provider
// order, and commits the cache only after the final page: a failure on any
// page returns [shared.ErrListFetchFailed] with the prior cache untouched.
func (f *Fetcher) GetList(ctx context.Context, sessionID string, kind models.ListKind, force bool) ([]models.ListEntry, error) {
	sess, err := f.store.Get(sessionID)
	if err != nil {
		return nil, err
	}

	if cached := sess.CachedList(kind); len(cached) > 0 && !force {
		f.logger.Debug("list cache hit", "session", sessionID, "kind", kind, "entries", len(cached))
		return cached, nil
	}

	accessToken, err := f.manager.ResolveAccessToken(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var entries []models.ListEntry
	pageURL := ""
	pages := 0

	for {
		page, err := f.lists.ListPage(ctx, accessToken, kind, pageURL)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", shared.ErrListFetchFailed, pages+1, err)
		}

		entries = append(entries, page.Entries...)
		pages++

		if page.Next == "" {
			break
		}
		pageURL = page.Next
	}

	if err := f.store.SetList(sessionID, kind, entries); err != nil {
		return nil, err
	}

	f.logger.Info("list fetched", "session", sessionID, "kind", kind, "pages", pages, "entries", len(entries))
	return entries, nil
}
