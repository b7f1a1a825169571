// Package ui implements the interactive terminal browser.
//
// The [Model] is a bubbletea program with two views: a session picker and a
// tiered entry list for the selected session. Entries come from the broker's
// cache; a key binding forces a fresh fetch from the provider.
package ui
