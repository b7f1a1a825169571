package tasks

import (
	"fmt"

	"github.com/desertthunder/maltier/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
}

// Operation phase enumeration
type Phase int

const (
	WarmStart Phase = iota
	WarmList
)

func (p Phase) String() string {
	switch p {
	case WarmStart:
		return "warm_start"
	case WarmList:
		return "warm_list"
	default:
		return ""
	}
}

func warmStartUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WarmStart,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Warming %d lists...", total),
	}
}

func warmCompletedUpdate(step, total int, sessionID string, kind models.ListKind, entries int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WarmList,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s %s (%d entries)", step, total, sessionID, kind, entries),
	}
}

func warmFailedUpdate(step, total int, sessionID string, kind models.ListKind, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WarmList,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s %s: %v", step, total, sessionID, kind, err),
	}
}
