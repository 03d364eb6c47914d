// Package deck builds slide-deck artifacts from pipeline output and
// hands them back across a queue boundary.
package deck

import "github.com/google/uuid"

// Slide is one slide in a deck outline.
type Slide struct {
	Title      string   `json:"title"`
	Bullets    []string `json:"bullets"`
	IsQuestion bool     `json:"is_question,omitempty"`
	Notes      string   `json:"notes,omitempty"`
}

// Request asks the builder to materialize a deck at Filename. Ownership
// of the slides transfers to the builder at submission; the submitter
// must not mutate them afterwards.
//
// Done carries the written path once the builder finishes. The channel
// is buffered so a builder never blocks on a submitter that stopped
// waiting.
type Request struct {
	ID       uuid.UUID
	Title    string
	Slides   []Slide
	Filename string
	Done     chan string
}

// BuildNotice is the builder's completion message on the result queue.
// Consumers that are not the deck handoff ignore it by type.
type BuildNotice struct {
	To       string
	Filename string
	Path     string
	Err      string
}

// NoticeAudience tags BuildNotice messages for the handoff consumer.
const NoticeAudience = "deck-handoff"
