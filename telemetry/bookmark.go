package telemetry

import (
	"fmt"
	"log/slog"
	"math"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkDesensitized   BookmarkType = "desensitized"
	BookmarkFFOnset        BookmarkType = "ff_onset"
	BookmarkMappingSettled BookmarkType = "mapping_settled"
	BookmarkResensitized   BookmarkType = "resensitized"
)

// Bookmark marks a notable moment of a run.
type Bookmark struct {
	Type        BookmarkType `csv:"type" json:"type"`
	Step        int          `csv:"step" json:"step"`
	Description string       `csv:"description" json:"description"`
}

// LogValue implements slog.LogValuer for structured logging.
func (b Bookmark) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("type", string(b.Type)),
		slog.Int("step", b.Step),
		slog.String("description", b.Description),
	)
}

// BookmarkDetector watches window stats for threshold crossings. Each
// bookmark type fires at most once per desensitization episode.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	initialRho float64
	ffHeight   float64

	desensitized  bool
	ffOnset       bool
	settled       bool
	settledStreak int
}

// NewBookmarkDetector creates a detector. initialRho is the population rho
// at step 0 and ffHeight the saturation value of the FF ramp.
func NewBookmarkDetector(historySize int, initialRho, ffHeight float64) *BookmarkDetector {
	if historySize < 3 {
		historySize = 3
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
		initialRho:  initialRho,
		ffHeight:    ffHeight,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if b := bd.checkDesensitization(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkFFOnset(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkMappingSettled(stats); b != nil {
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

// recent returns the history oldest first.
func (bd *BookmarkDetector) recent() []WindowStats {
	if !bd.historyFull {
		return bd.history[:bd.historyIdx]
	}
	out := make([]WindowStats, 0, bd.historySize)
	out = append(out, bd.history[bd.historyIdx:]...)
	return append(out, bd.history[:bd.historyIdx]...)
}

// checkDesensitization fires when mean rho falls below half its starting
// value, and again (as resensitized) once it recovers past three quarters.
func (bd *BookmarkDetector) checkDesensitization(stats WindowStats) *Bookmark {
	if bd.initialRho <= 0 {
		return nil
	}
	if !bd.desensitized && stats.RhoMean < bd.initialRho/2 {
		bd.desensitized = true
		return &Bookmark{
			Type:        BookmarkDesensitized,
			Step:        stats.WindowEnd,
			Description: fmt.Sprintf("Mean rho %.3f fell below half of %.3f", stats.RhoMean, bd.initialRho),
		}
	}
	if bd.desensitized && stats.RhoMean > bd.initialRho*0.75 {
		bd.desensitized = false
		return &Bookmark{
			Type:        BookmarkResensitized,
			Step:        stats.WindowEnd,
			Description: fmt.Sprintf("Mean rho recovered to %.3f", stats.RhoMean),
		}
	}
	return nil
}

// checkFFOnset fires once the FF ramp passes half its height.
func (bd *BookmarkDetector) checkFFOnset(stats WindowStats) *Bookmark {
	if bd.ffOnset || bd.ffHeight <= 0 || stats.FFCoef < bd.ffHeight/2 {
		return nil
	}
	bd.ffOnset = true
	return &Bookmark{
		Type:        BookmarkFFOnset,
		Step:        stats.WindowEnd,
		Description: fmt.Sprintf("FF coefficient %.3f passed half of %.3f", stats.FFCoef, bd.ffHeight),
	}
}

// checkMappingSettled fires once the mapping correlation has stayed within
// 0.02 of its rolling mean for three consecutive windows.
func (bd *BookmarkDetector) checkMappingSettled(stats WindowStats) *Bookmark {
	if bd.settled {
		return nil
	}
	history := bd.recent()
	if len(history) < 3 {
		return nil
	}

	var sum float64
	for _, h := range history[len(history)-3:] {
		sum += h.MappingCorr
	}
	mean := sum / 3

	if math.Abs(stats.MappingCorr-mean) < 0.02 && math.Abs(stats.MappingCorr) > 0.5 {
		bd.settledStreak++
	} else {
		bd.settledStreak = 0
	}
	if bd.settledStreak < 3 {
		return nil
	}

	bd.settled = true
	return &Bookmark{
		Type:        BookmarkMappingSettled,
		Step:        stats.WindowEnd,
		Description: fmt.Sprintf("Mapping correlation settled at %.3f", stats.MappingCorr),
	}
}
