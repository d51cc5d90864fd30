package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Phase names a stage of a sweep.
type Phase int

const (
	FetchSamples Phase = iota
	ExportBatch
	WriteManifest
)

func (p Phase) String() string {
	switch p {
	case FetchSamples:
		return "fetch_samples"
	case ExportBatch:
		return "export_batch"
	case WriteManifest:
		return "write_manifest"
	default:
		return ""
	}
}

func fetchingSamplesUpdate(step, total int, genre string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSamples,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetching samples: %s...", step, total, genre),
	}
}

func exportCompletedUpdate(step, total int, res GenreResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportBatch,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d songs)", step, total, res.Genre, res.Songs),
		Data:    res,
	}
}

func exportFailedUpdate(step, total int, res GenreResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportBatch,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, res.Genre, res.Error),
		Data:    res,
	}
}

func manifestUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteManifest,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Writing manifest to %s", path),
	}
}
