package ports

import (
	"context"

	"web-voice-assistant/internal/entity"
)

// PageDriver is the DOM boundary. Reads happen through evaluated scripts,
// writes through script evaluation and synthetic event dispatch.
type PageDriver interface {
	Launch(ctx context.Context) error
	Close(ctx context.Context) error
	IsReady() bool

	// ScanInteractive runs the four detection passes in the page and returns
	// raw elements in pass order (search first). Dedup happens in the catalog.
	ScanInteractive(ctx context.Context) ([]entity.InteractiveElement, error)

	ScrollIntoView(ctx context.Context, selector string) error
	Click(ctx context.Context, selector string) error
	// TypeText focuses the element, optionally clears it, sets the value and
	// fires synthetic input and change events.
	TypeText(ctx context.Context, selector, text string, clear bool) error
	Focus(ctx context.Context, selector string) error
	ScrollBy(ctx context.Context, dx, dy int) error
	ScrollToEdge(ctx context.Context, edge string) error
	History(ctx context.Context, verb string) error
	IsAttached(ctx context.Context, selector string) (bool, error)

	Highlight(ctx context.Context, selector, label string) error
	ClearHighlight(ctx context.Context, selector string) error

	Evaluate(ctx context.Context, script string) (any, error)
	Summary(ctx context.Context) (*entity.PageSummary, error)
}

// TextModel is the generative-text collaborator. A single-turn prompt goes
// in; free-form text that should contain one JSON object comes back.
type TextModel interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// IntentClassifier decides information vs action. It never returns an error:
// model and parse failures degrade to safe defaults inside the pipeline.
type IntentClassifier interface {
	Classify(ctx context.Context, utterance string, catalog []entity.InteractiveElement) *entity.Intent
}

// ElementResolver maps a free-text target description onto the catalog.
type ElementResolver interface {
	FindByDescription(description string, catalog []entity.InteractiveElement) entity.ElementMatch
	FindBestMatch(ctx context.Context, description string, catalog []entity.InteractiveElement) entity.ElementMatch
}

type Assistant interface {
	HandleUtterance(ctx context.Context, utterance string) (*entity.Turn, error)
	ActiveManipulations() []entity.Manipulation
	Stop()
}
