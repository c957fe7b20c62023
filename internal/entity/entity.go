package entity

import (
	"time"

	"github.com/google/uuid"
)

// ElementKind is the detection class an interactive element was found under.
// Scan order privileges search semantics, so the kind doubles as a priority.
type ElementKind string

const (
	ElementKindSearch ElementKind = "search"
	ElementKindButton ElementKind = "button"
	ElementKindLink   ElementKind = "link"
	ElementKindInput  ElementKind = "input"
)

type BoundingBox struct {
	Top     float64
	Left    float64
	Bottom  float64
	Right   float64
	Width   float64
	Height  float64
	CenterX float64
	CenterY float64
}

// InteractiveElement is one candidate page target. References are valid only
// for the scan that produced them; any DOM mutation requires a re-scan.
type InteractiveElement struct {
	Kind            ElementKind
	DisplayText     string
	InputType       string
	Placeholder     string
	AriaLabel       string
	AssociatedLabel string
	DOMID           string
	CSSClasses      string
	Selector        string
	BoundingBox     BoundingBox
	UniqueKey       string
}

type ActionType string

const (
	ActionTypeClick    ActionType = "click"
	ActionTypeScroll   ActionType = "scroll"
	ActionTypeNavigate ActionType = "navigate"
	ActionTypeType     ActionType = "type"
	ActionTypeFocus    ActionType = "focus"

	ActionTypeTextSize   ActionType = "modify_text_size"
	ActionTypeTheme      ActionType = "modify_theme"
	ActionTypeColor      ActionType = "modify_color"
	ActionTypeVisibility ActionType = "modify_visibility"
	ActionTypeLayout     ActionType = "modify_layout"
	ActionTypeFocusMode  ActionType = "modify_focus"
	ActionTypeZoom       ActionType = "modify_zoom"
	ActionTypeReset      ActionType = "modify_reset"
)

// IsManipulation reports whether the action is a reversible page-level
// visual change rather than an element or viewport operation.
func (t ActionType) IsManipulation() bool {
	switch t {
	case ActionTypeTextSize, ActionTypeTheme, ActionTypeColor, ActionTypeVisibility,
		ActionTypeLayout, ActionTypeFocusMode, ActionTypeZoom, ActionTypeReset:
		return true
	default:
		return false
	}
}

func (t ActionType) Valid() bool {
	switch t {
	case ActionTypeClick, ActionTypeScroll, ActionTypeNavigate, ActionTypeType, ActionTypeFocus:
		return true
	default:
		return t.IsManipulation()
	}
}

// NeedsTarget reports whether the action operates on a concrete element and
// therefore requires resolution before execution.
func (t ActionType) NeedsTarget() bool {
	switch t {
	case ActionTypeClick, ActionTypeType, ActionTypeFocus:
		return true
	default:
		return false
	}
}

// Intent is the classifier's decision for one utterance. Created fresh per
// utterance and never mutated once the repair/override stages complete.
// Invariant: ActionType != "" implies IsAction.
type Intent struct {
	IsAction          bool
	Confidence        float64
	ActionType        ActionType
	TargetDescription string
	Payload           string
	Reasoning         string
}

// ElementMatch is the resolver's verdict. A confidence at or below the local
// acceptance threshold must be treated as no match even when Element is set.
type ElementMatch struct {
	Element    *InteractiveElement
	Confidence float64
	Reasoning  string
}

func (m ElementMatch) Found() bool {
	return m.Element != nil
}

// ActionResult is the executor's structured outcome. Failures come back here,
// not as errors crossing the classifier→resolver→executor chain.
type ActionResult struct {
	Success           bool
	Message           string
	NeedsConfirmation bool
}

func FailedResult(message string) ActionResult {
	return ActionResult{Success: false, Message: message}
}

func OKResult(message string) ActionResult {
	return ActionResult{Success: true, Message: message}
}

// Manipulation records one applied page-level visual change so it can be
// listed and individually reasoned about until a reset.
type Manipulation struct {
	ID          string
	Description string
	AppliedAt   time.Time
}

type TurnStatus string

const (
	TurnStatusAnswered          TurnStatus = "answered"
	TurnStatusExecuted          TurnStatus = "executed"
	TurnStatusNeedsConfirmation TurnStatus = "needs_confirmation"
	TurnStatusFailed            TurnStatus = "failed"
)

// Turn is the full record of one utterance through the pipeline.
type Turn struct {
	ID          uuid.UUID
	Utterance   string
	Intent      *Intent
	Match       *ElementMatch
	Result      *ActionResult
	Answer      string
	Status      TurnStatus
	Error       string
	CreatedAt   time.Time
	CompletedAt *time.Time
}

// PageSummary is the lightweight page context embedded in model prompts.
type PageSummary struct {
	URL     string
	Title   string
	Excerpt string
}
