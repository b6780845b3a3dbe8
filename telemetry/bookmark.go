package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkFlockFormed    BookmarkType = "flock_formed"
	BookmarkFlockDispersed BookmarkType = "flock_dispersed"
	BookmarkFieldSpike     BookmarkType = "field_spike"
	BookmarkFieldDrained   BookmarkType = "field_drained"
)

// Thresholds on WindowStats.Alignment.
const (
	formedAlignment    = 0.8
	dispersedAlignment = 0.3
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Frame       int64        `csv:"frame"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"frame", b.Frame,
		"description", b.Description,
	)
}

// BookmarkDetector detects notable transitions between stats windows.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	// whether the last transition was into the ordered state
	ordered bool
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 3 {
		historySize = 3
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if b := bd.checkOrder(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkVolume(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	bd.addToHistory(stats)
	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []WindowStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

// checkOrder fires once per crossing, with hysteresis between the thresholds.
func (bd *BookmarkDetector) checkOrder(stats WindowStats) *Bookmark {
	if stats.Active < 2 {
		return nil
	}
	switch {
	case !bd.ordered && stats.Alignment >= formedAlignment:
		bd.ordered = true
		return &Bookmark{
			Type:        BookmarkFlockFormed,
			Frame:       stats.WindowEndFrame,
			Description: fmt.Sprintf("Alignment rose to %.2f across %d agents", stats.Alignment, stats.Active),
		}
	case bd.ordered && stats.Alignment <= dispersedAlignment:
		bd.ordered = false
		return &Bookmark{
			Type:        BookmarkFlockDispersed,
			Frame:       stats.WindowEndFrame,
			Description: fmt.Sprintf("Alignment fell to %.2f across %d agents", stats.Alignment, stats.Active),
		}
	}
	return nil
}

// checkVolume compares volume mass against the rolling average.
func (bd *BookmarkDetector) checkVolume(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total float64
	for _, h := range history {
		total += h.VolumeMass
	}
	avg := total / float64(len(history))
	if avg == 0 {
		return nil
	}

	switch {
	case stats.VolumeMass > avg*2.0:
		return &Bookmark{
			Type:        BookmarkFieldSpike,
			Frame:       stats.WindowEndFrame,
			Description: fmt.Sprintf("Volume mass %.1f is %.1fx average (%.1f)", stats.VolumeMass, stats.VolumeMass/avg, avg),
		}
	case stats.VolumeMass < avg*0.1:
		return &Bookmark{
			Type:        BookmarkFieldDrained,
			Frame:       stats.WindowEndFrame,
			Description: fmt.Sprintf("Volume mass %.1f dropped below 10%% of average (%.1f)", stats.VolumeMass, avg),
		}
	}
	return nil
}
