// Package formatter groups a cached list into score tiers and renders the
// result as JSON, CSV, or Markdown.
package formatter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/desertthunder/maltier/internal/models"
	"github.com/desertthunder/maltier/internal/shared"
)

// Tier is a ranked bucket of entries with similar scores.
type Tier string

const (
	TierS        Tier = "S"
	TierA        Tier = "A"
	TierB        Tier = "B"
	TierC        Tier = "C"
	TierD        Tier = "D"
	TierF        Tier = "F"
	TierUnranked Tier = "Unranked"
)

// tierOrder fixes the rendering order from best to worst.
var tierOrder = []Tier{TierS, TierA, TierB, TierC, TierD, TierF, TierUnranked}

// TierFor maps a 0-10 score onto a tier. A zero score means the user never
// rated the entry.
func TierFor(score float64) Tier {
	switch {
	case score <= 0:
		return TierUnranked
	case score >= 9:
		return TierS
	case score >= 8:
		return TierA
	case score >= 7:
		return TierB
	case score >= 6:
		return TierC
	case score >= 5:
		return TierD
	default:
		return TierF
	}
}

// TierGroup holds the entries assigned to one tier, in their original order.
type TierGroup struct {
	Tier    Tier               `json:"tier"`
	Entries []models.ListEntry `json:"entries"`
}

// Group buckets entries by tier. Tiers with no entries are omitted; entry
// order within a tier follows the input.
func Group(entries []models.ListEntry) []TierGroup {
	buckets := make(map[Tier][]models.ListEntry)
	for _, e := range entries {
		t := TierFor(e.Score)
		buckets[t] = append(buckets[t], e)
	}

	groups := make([]TierGroup, 0, len(buckets))
	for _, t := range tierOrder {
		if bucket, ok := buckets[t]; ok {
			groups = append(groups, TierGroup{Tier: t, Entries: bucket})
		}
	}
	return groups
}

// Format identifies an export encoding.
type Format string

const (
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
)

// ParseFormat validates a raw format string from the CLI layer.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatJSON, FormatCSV, FormatMarkdown:
		return Format(s), nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, s)
	}
}

// Export renders the groups in the requested format.
func Export(w io.Writer, groups []TierGroup, format Format) error {
	switch format {
	case FormatJSON:
		return exportJSON(w, groups)
	case FormatCSV:
		return exportCSV(w, groups)
	case FormatMarkdown:
		return exportMarkdown(w, groups)
	default:
		return fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, format)
	}
}

func exportJSON(w io.Writer, groups []TierGroup) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(groups)
}

func exportCSV(w io.Writer, groups []TierGroup) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"tier", "remote_id", "score", "picture_url"}); err != nil {
		return err
	}

	for _, g := range groups {
		for _, e := range g.Entries {
			record := []string{
				string(g.Tier),
				strconv.Itoa(e.RemoteID),
				strconv.FormatFloat(e.Score, 'f', -1, 64),
				e.PictureURL,
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

func exportMarkdown(w io.Writer, groups []TierGroup) error {
	for i, g := range groups {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "## %s\n\n", g.Tier); err != nil {
			return err
		}
		for _, e := range g.Entries {
			if _, err := fmt.Fprintf(w, "- %d (score %.1f)\n", e.RemoteID, e.Score); err != nil {
				return err
			}
		}
	}
	return nil
}
