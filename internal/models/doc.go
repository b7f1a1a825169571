// Package models defines domain entities for the maltier session broker.
//
// The package contains two categories of types:
//
// 1. Remote data: entries fetched from the MyAnimeList API
//   - [ListEntry] : A single rated entry (id, artwork, score)
//   - [ListKind] : Which remote list an entry belongs to (anime or manga)
//
// 2. Session state: server-side records persisted by the store package
//   - [Session] : Token material plus cached lists, keyed by session id
//
// Sessions are owned by the store and mutated only through the sessions
// package; handlers and tasks treat them as read-only snapshots.
package models
