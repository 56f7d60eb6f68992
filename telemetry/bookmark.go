package telemetry

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/stat"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkSplash      BookmarkType = "splash"
	BookmarkCompression BookmarkType = "compression"
	BookmarkEscape      BookmarkType = "escape"
	BookmarkDegenerate  BookmarkType = "degenerate_density"
	BookmarkSettled     BookmarkType = "settled"
)

// Detection thresholds.
const (
	splashFactor        = 2.0  // peak speed vs rolling average
	splashMinSpeed      = 0.05 // m/s; ignore noise while at rest
	compressionLimit    = 0.05 // relative density excess
	settledKEFraction   = 0.05 // of the highest kinetic energy seen
	settledCV2          = 0.01 // squared coefficient of variation of KE
	settledWindowsCount = 5
)

// Bookmark marks a window where something notable happened.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Step        int          `csv:"step"`
	Time        float64      `csv:"time"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"step", b.Step,
		"time", b.Time,
		"description", b.Description,
	)
}

// BookmarkDetector scans successive stats windows for notable moments.
type BookmarkDetector struct {
	restDensity float64

	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	peakKE        float64 // highest kinetic energy seen
	compressed    bool    // last window was over the compression limit
	lastEscaped   int
	sawDegenerate bool
	settledCount  int // consecutive quiet windows
}

// NewBookmarkDetector creates a detector comparing density against
// restDensity and keeping historySize windows.
func NewBookmarkDetector(restDensity float64, historySize int) *BookmarkDetector {
	if historySize < 5 {
		historySize = 5
	}
	return &BookmarkDetector{
		restDensity: restDensity,
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest window and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark
	add := func(b *Bookmark) {
		if b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}

	add(bd.checkSplash(stats))
	add(bd.checkCompression(stats))
	add(bd.checkEscape(stats))
	add(bd.checkDegenerate(stats))
	add(bd.checkSettled(stats))

	bd.addToHistory(stats)
	bd.peakKE = max(bd.peakKE, stats.KineticEnergy)
	bd.lastEscaped = stats.Escaped

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

// recent returns the last n windows, oldest first, or nil if fewer are held.
func (bd *BookmarkDetector) recent(n int) []WindowStats {
	if len(bd.getHistory()) < n {
		return nil
	}
	out := make([]WindowStats, n)
	for i := range out {
		out[i] = bd.history[(bd.historyIdx-n+i+bd.historySize)%bd.historySize]
	}
	return out
}

func mark(t BookmarkType, stats WindowStats, format string, args ...any) *Bookmark {
	return &Bookmark{
		Type:        t,
		Step:        stats.WindowEndStep,
		Time:        stats.SimTimeSec,
		Description: fmt.Sprintf(format, args...),
	}
}

// checkSplash fires when the peak speed jumps well above its rolling average.
func (bd *BookmarkDetector) checkSplash(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total float64
	for _, h := range history {
		total += h.PeakSpeed
	}
	avg := total / float64(len(history))
	if avg == 0 {
		return nil
	}

	if stats.PeakSpeed > avg*splashFactor && stats.PeakSpeed > splashMinSpeed {
		return mark(BookmarkSplash, stats, "Peak speed %.3f is %.1fx average (%.3f)", stats.PeakSpeed, stats.PeakSpeed/avg, avg)
	}
	return nil
}

// checkCompression fires when the densest particle first exceeds the limit.
func (bd *BookmarkDetector) checkCompression(stats WindowStats) *Bookmark {
	if bd.restDensity <= 0 {
		return nil
	}
	excess := stats.DensityMax/bd.restDensity - 1
	over := excess > compressionLimit
	defer func() { bd.compressed = over }()

	if over && !bd.compressed {
		return mark(BookmarkCompression, stats, "Max density %.1f is %.1f%% above rest", stats.DensityMax, excess*100)
	}
	return nil
}

func (bd *BookmarkDetector) checkEscape(stats WindowStats) *Bookmark {
	if stats.Escaped > bd.lastEscaped {
		return mark(BookmarkEscape, stats, "%d particles outside the domain (was %d)", stats.Escaped, bd.lastEscaped)
	}
	return nil
}

// checkDegenerate fires once, the first time a zero-density fallback is hit.
func (bd *BookmarkDetector) checkDegenerate(stats WindowStats) *Bookmark {
	if bd.sawDegenerate || stats.DegenerateDensity == 0 {
		return nil
	}
	bd.sawDegenerate = true
	return mark(BookmarkDegenerate, stats, "%d zero-density fallbacks", stats.DegenerateDensity)
}

// checkSettled fires once the kinetic energy has stayed low and steady for
// several windows after motion.
func (bd *BookmarkDetector) checkSettled(stats WindowStats) *Bookmark {
	if bd.peakKE == 0 || stats.KineticEnergy > bd.peakKE*settledKEFraction {
		bd.settledCount = 0
		return nil
	}

	windows := bd.recent(4)
	if windows == nil {
		return nil
	}

	ke := make([]float64, len(windows))
	for i, h := range windows {
		ke[i] = h.KineticEnergy
	}
	mean, std := stat.PopMeanStdDev(ke, nil)

	cv2 := 0.0
	if mean > 0 {
		cv2 = std * std / (mean * mean)
	}
	if cv2 < settledCV2 {
		bd.settledCount++
	} else {
		bd.settledCount = 0
	}

	if bd.settledCount == settledWindowsCount {
		return mark(BookmarkSettled, stats, "Kinetic energy %.4g steady at %.1f%% of peak", stats.KineticEnergy, stats.KineticEnergy/bd.peakKE*100)
	}
	return nil
}
