package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/maltier/internal/formatter"
	"github.com/desertthunder/maltier/internal/models"
)

var (
	_ list.Item = sessionItem{}
	_ list.Item = entryItem{}
)

// sessionItem wraps [models.Session] to implement [list.Item].
type sessionItem struct {
	session *models.Session
}

func (i sessionItem) FilterValue() string {
	if i.session.UserName != "" {
		return i.session.UserName
	}
	return i.session.ID
}

func (i sessionItem) Title() string {
	if i.session.UserName != "" {
		return fmt.Sprintf("%s (%s)", i.session.UserName, i.session.ID[:8])
	}
	return i.session.ID
}

func (i sessionItem) Description() string {
	desc := fmt.Sprintf("%d anime • %d manga cached",
		len(i.session.CachedList(models.KindAnime)),
		len(i.session.CachedList(models.KindManga)),
	)
	if i.session.Expired(time.Now()) {
		return fmt.Sprintf("%s • token expired", desc)
	}
	return desc
}

// entryItem wraps [models.ListEntry] to implement [list.Item].
type entryItem struct {
	entry models.ListEntry
}

func (i entryItem) FilterValue() string { return fmt.Sprintf("%d", i.entry.RemoteID) }
func (i entryItem) Title() string {
	return fmt.Sprintf("#%d [%s]", i.entry.RemoteID, formatter.TierFor(i.entry.Score))
}

func (i entryItem) Description() string {
	desc := fmt.Sprintf("score %.1f", i.entry.Score)
	if i.entry.PictureURL != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.entry.PictureURL)
	}
	return desc
}
