package deck

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rowanvale/chalkline/artifacts"
)

const deckExt = ".deck.json"

// Handoff submits deck requests to the build queue and waits a bounded
// time for the artifact.
type Handoff struct {
	decks    chan<- Request
	dir      string
	interval time.Duration
	attempts int
	log      *zap.SugaredLogger
}

// NewHandoff creates a Handoff writing decks under dir. The wait for a
// finished deck is bounded at attempts ticks of interval.
func NewHandoff(decks chan<- Request, dir string, interval time.Duration, attempts int, log *zap.SugaredLogger) *Handoff {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Handoff{decks: decks, dir: dir, interval: interval, attempts: attempts, log: log}
}

// ExpectedPath computes the deck path a title would be written to right
// now. It creates nothing, so recomputing without intervening writes
// yields the same candidate.
func (h *Handoff) ExpectedPath(title string) string {
	return artifacts.UniquePath(h.dir, artifacts.Slug(title), deckExt)
}

// Submit enqueues a deck build and waits for completion. The builder's
// Done signal is the primary completion source; as a fallback for
// builders that never signal, each tick also checks whether the expected
// file appeared. On timeout it returns an empty path and false; the
// caller ships the lesson without a deck.
func (h *Handoff) Submit(ctx context.Context, title string, slides []Slide) (string, bool) {
	path := h.ExpectedPath(title)
	req := Request{
		ID:       uuid.New(),
		Title:    title,
		Slides:   slides,
		Filename: path,
		Done:     make(chan string, 1),
	}

	select {
	case h.decks <- req:
	case <-ctx.Done():
		h.log.Warnw("deck submit abandoned", "title", title, "error", ctx.Err())
		return "", false
	}

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for i := 0; i < h.attempts; i++ {
		select {
		case written := <-req.Done:
			if written == "" {
				h.log.Warnw("deck build reported failure", "title", title)
				return "", false
			}
			return written, true
		case <-ctx.Done():
			h.log.Warnw("deck wait cancelled", "title", title, "error", ctx.Err())
			return "", false
		case <-ticker.C:
			if fileExists(path) {
				return path, true
			}
		}
	}

	h.log.Warnw("deck never materialized", "title", title, "expected", path,
		"waited", time.Duration(h.attempts)*h.interval)
	return "", false
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
