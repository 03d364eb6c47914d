package deck

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// document is the on-disk deck format.
type document struct {
	Title       string    `json:"title"`
	Slides      []Slide   `json:"slides"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Builder consumes build requests and writes deck files.
type Builder struct {
	log    *zap.SugaredLogger
	notify func(BuildNotice)
}

// NewBuilder creates a Builder. notify, if non-nil, receives a
// BuildNotice after each request completes; it is typically a closure
// posting to the result queue.
func NewBuilder(log *zap.SugaredLogger, notify func(BuildNotice)) *Builder {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Builder{log: log, notify: notify}
}

// Run consumes requests until the channel closes or ctx is cancelled. It
// is meant to run as the only goroutine draining the deck queue.
func (b *Builder) Run(ctx context.Context, requests <-chan Request) {
	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-requests:
			if !ok {
				return
			}
			b.handle(req)
		}
	}
}

func (b *Builder) handle(req Request) {
	notice := BuildNotice{To: NoticeAudience, Filename: filepath.Base(req.Filename)}

	path, err := b.build(req)
	if err != nil {
		b.log.Errorw("deck build failed", "id", req.ID, "title", req.Title, "error", err)
		notice.Err = err.Error()
	} else {
		b.log.Infow("deck built", "id", req.ID, "path", path)
		notice.Path = path
	}

	if req.Done != nil {
		select {
		case req.Done <- path:
		default:
		}
		close(req.Done)
	}
	if b.notify != nil {
		b.notify(notice)
	}
}

// build writes the deck document to req.Filename.
func (b *Builder) build(req Request) (string, error) {
	if len(req.Slides) == 0 {
		return "", fmt.Errorf("deck %q has no slides", req.Title)
	}
	if err := os.MkdirAll(filepath.Dir(req.Filename), 0o755); err != nil {
		return "", fmt.Errorf("create deck dir: %w", err)
	}

	doc := document{Title: req.Title, Slides: req.Slides, GeneratedAt: time.Now().UTC()}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode deck: %w", err)
	}
	if err := os.WriteFile(req.Filename, data, 0o644); err != nil {
		return "", fmt.Errorf("write deck: %w", err)
	}
	return req.Filename, nil
}
