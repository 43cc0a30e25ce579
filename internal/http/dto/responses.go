package dto

import (
	"time"

	"github.com/cesargomez89/powerhour/internal/domain"
	"github.com/cesargomez89/powerhour/internal/scanner"
)

// ScanStartedResponse carries the handle for polling and cancellation.
type ScanStartedResponse struct {
	ScanID string `json:"scan_id"`
}

// ScanStatusResponse is the polled view of a running or finished scan.
type ScanStatusResponse struct {
	ScanID      string `json:"scan_id"`
	State       string `json:"state"`
	Processed   int    `json:"processed"`
	CurrentFile string `json:"current_file,omitempty"`
	Error       string `json:"error,omitempty"`
}

func NewScanStatusResponse(st scanner.ScanStatus) ScanStatusResponse {
	return ScanStatusResponse{
		ScanID:      st.ID,
		State:       string(st.State),
		Processed:   st.Progress.ProcessedCount,
		CurrentFile: st.Progress.CurrentFileName,
		Error:       st.Error,
	}
}

// LibrarySummary lists a library without its song payload.
type LibrarySummary struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Path        string    `json:"path"`
	SongCount   int       `json:"song_count"`
	TotalSize   int64     `json:"total_size"`
	LastScanned time.Time `json:"last_scanned"`
	Current     bool      `json:"current"`
}

func NewLibrarySummary(l *domain.Library, currentID string) LibrarySummary {
	return LibrarySummary{
		ID:          l.ID,
		Name:        l.Name,
		Path:        l.Path,
		SongCount:   l.SongCount,
		TotalSize:   l.TotalSize,
		LastScanned: l.LastScanned,
		Current:     l.ID == currentID,
	}
}

// MixComposedResponse reports a render, including how many clips were
// skipped because their audio could not be loaded.
type MixComposedResponse struct {
	Mix     *domain.Mix `json:"mix"`
	Skipped int         `json:"skipped,omitempty"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}
