package usecase

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"web-voice-assistant/internal/catalog"
	"web-voice-assistant/internal/config"
	"web-voice-assistant/internal/entity"
	"web-voice-assistant/internal/executor"
	"web-voice-assistant/internal/manipulate"
	"web-voice-assistant/internal/ports"
	"web-voice-assistant/pkg/apperr"
	"web-voice-assistant/pkg/logg"
	"web-voice-assistant/pkg/tracing"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	assistantServiceName = "AssistantService"
	assistantTracer      = "usecase.assistant"
)

// weakConfidence marks a degraded classification (parse-failure fallback).
// Such an intent carries no slots, so it cannot be executed directly.
const weakConfidence = 0.3

// AssistantService routes one utterance through the pipeline:
// scan -> classify -> (resolve -> validate -> execute | answer).
// Each turn re-scans the page, so a prior turn's DOM mutations never leak
// stale element references into the next one.
type AssistantService struct {
	config      *config.Config
	logger      *zap.Logger
	tracer      trace.Tracer
	driver      ports.PageDriver
	model       ports.TextModel
	scanner     *catalog.Scanner
	classifier  ports.IntentClassifier
	resolver    ports.ElementResolver
	executor    *executor.Executor
	manipulator *manipulate.Manager
	confirm     func(prompt string) bool
	running     bool
}

type AssistantServiceParams struct {
	fx.In

	Config      *config.Config
	Logger      *zap.Logger
	Driver      ports.PageDriver
	Model       ports.TextModel
	Scanner     *catalog.Scanner
	Classifier  ports.IntentClassifier
	Resolver    ports.ElementResolver
	Executor    *executor.Executor
	Manipulator *manipulate.Manager
}

func NewAssistantService(params AssistantServiceParams) *AssistantService {
	return &AssistantService{
		config:      params.Config,
		logger:      params.Logger.With(zap.String(logg.Layer, assistantServiceName)),
		tracer:      otel.Tracer(assistantTracer),
		driver:      params.Driver,
		model:       params.Model,
		scanner:     params.Scanner,
		classifier:  params.Classifier,
		resolver:    params.Resolver,
		executor:    params.Executor,
		manipulator: params.Manipulator,
		confirm:     confirmOnStdin,
		running:     true,
	}
}

// SetConfirm replaces the confirmation prompt, used by the console and tests.
func (s *AssistantService) SetConfirm(fn func(prompt string) bool) {
	if fn != nil {
		s.confirm = fn
	}
}

func (s *AssistantService) ActiveManipulations() []entity.Manipulation {
	return s.manipulator.Active()
}

func (s *AssistantService) Stop() {
	s.logger.Info("Stopping assistant...")
	s.running = false
}

func (s *AssistantService) HandleUtterance(ctx context.Context, utterance string) (turn *entity.Turn, err error) {
	const op = "HandleUtterance"
	logger := s.logger.With(zap.String(logg.Operation, op), zap.String(logg.Utterance, utterance))

	ctx, step := tracing.StartSpan(ctx, s.tracer, logger, op,
		attribute.String("utterance", utterance))
	defer func() {
		step.End(err)
	}()

	if strings.TrimSpace(utterance) == "" {
		return nil, apperr.InvalidReqError(op, "utterance", errors.New("utterance cannot be empty"))
	}

	turn = &entity.Turn{
		ID:        uuid.New(),
		Utterance: utterance,
		CreatedAt: time.Now(),
	}

	logger = logger.With(zap.String(logg.TurnID, turn.ID.String()))

	if !s.running {
		return s.fail(turn, "assistant is stopped"), nil
	}

	if !s.driver.IsReady() {
		return s.fail(turn, "browser is not ready"), apperr.WrapErrorWithReason(op, apperr.CodeBrowserNotReady, "browser_not_ready")
	}

	step.AddEvent("scanning page")

	pageCatalog, err := s.scanner.Scan(ctx)
	if err != nil {
		logger.Error("Scan failed", zap.Error(err))

		return s.fail(turn, fmt.Sprintf("could not scan the page: %v", err)), nil
	}

	step.AddEvent("classifying utterance", attribute.Int("catalog_size", len(pageCatalog)))

	intent := s.classifier.Classify(ctx, utterance, pageCatalog)
	turn.Intent = intent

	logger.Info("Utterance classified",
		zap.Bool("is_action", intent.IsAction),
		zap.Float64("confidence", intent.Confidence),
		zap.String(logg.Action, string(intent.ActionType)))

	if !intent.IsAction {
		return s.answerQuestion(ctx, turn, step)
	}

	return s.performAction(ctx, turn, pageCatalog, step)
}

func (s *AssistantService) answerQuestion(ctx context.Context, turn *entity.Turn, step *tracing.Span) (*entity.Turn, error) {
	step.AddEvent("answering question")

	summary, err := s.driver.Summary(ctx)
	if err != nil {
		summary = &entity.PageSummary{}
	}

	prompt := s.buildAnswerPrompt(turn.Utterance, summary)

	answer, err := s.model.Complete(ctx, prompt)
	if err != nil {
		s.logger.Warn("Question answering failed", zap.Error(err))

		return s.fail(turn, fmt.Sprintf("could not answer: %v", err)), nil
	}

	turn.Answer = answer
	turn.Status = entity.TurnStatusAnswered
	s.complete(turn)

	return turn, nil
}

func (s *AssistantService) performAction(ctx context.Context, turn *entity.Turn, pageCatalog []entity.InteractiveElement, step *tracing.Span) (*entity.Turn, error) {
	intent := turn.Intent

	if intent.ActionType == "" {
		// Degraded classification (weak fallback signal): never execute on
		// it, ask the user to be specific instead.
		if intent.Confidence <= weakConfidence {
			return s.fail(turn, "I think that was an action but could not tell which one; please rephrase"), nil
		}

		return s.fail(turn, "no action type in classification"), nil
	}

	if !intent.ActionType.Valid() {
		return s.fail(turn, fmt.Sprintf("unknown action type %q", intent.ActionType)), nil
	}

	step.AddEvent("dispatching action", attribute.String("action", string(intent.ActionType)))

	var result entity.ActionResult

	switch {
	case intent.ActionType.IsManipulation():
		result = s.manipulator.Apply(ctx, intent.ActionType, intent.Payload)
	case intent.ActionType == entity.ActionTypeScroll:
		direction := scrollDirection(intent.Payload, turn.Utterance)
		result = s.executor.Scroll(ctx, direction, 0)
	case intent.ActionType == entity.ActionTypeNavigate:
		verb := navigationVerb(intent.Payload, turn.Utterance)
		result = s.executor.Navigate(ctx, verb)
	default:
		result = s.resolveAndExecute(ctx, turn, pageCatalog, step)
	}

	turn.Result = &result

	if !result.Success {
		return s.fail(turn, result.Message), nil
	}

	if result.NeedsConfirmation {
		turn.Status = entity.TurnStatusNeedsConfirmation
		s.complete(turn)

		return turn, nil
	}

	turn.Status = entity.TurnStatusExecuted
	s.complete(turn)

	return turn, nil
}

// resolveAndExecute handles the element-targeted actions. Local scoring runs
// first; the model-assisted matcher is the fallback for descriptions the
// scorer cannot place. Either way a sub-threshold confidence is no match.
func (s *AssistantService) resolveAndExecute(ctx context.Context, turn *entity.Turn, pageCatalog []entity.InteractiveElement, step *tracing.Span) entity.ActionResult {
	intent := turn.Intent

	if intent.TargetDescription == "" {
		return entity.FailedResult("no target description for element action")
	}

	step.AddEvent("resolving target", attribute.String("target", intent.TargetDescription))

	match := s.resolver.FindByDescription(intent.TargetDescription, pageCatalog)

	if !match.Found() {
		step.AddEvent("local resolution missed, trying model")

		match = s.resolver.FindBestMatch(ctx, intent.TargetDescription, pageCatalog)
	}

	turn.Match = &match

	if !match.Found() || match.Confidence <= weakConfidence {
		return entity.FailedResult(fmt.Sprintf("could not find %q on the page", intent.TargetDescription))
	}

	opts := executor.Options{Highlight: s.config.AssistantConfig.HighlightActions}

	result := s.dispatchElementAction(ctx, intent, match.Element, opts)

	if result.NeedsConfirmation {
		prompt := fmt.Sprintf("%s %q - %s", intent.ActionType, match.Element.DisplayText, result.Message)

		if !s.confirm(prompt) {
			return entity.FailedResult("action cancelled by user")
		}

		opts.Confirmed = true
		result = s.dispatchElementAction(ctx, intent, match.Element, opts)
	}

	return result
}

func (s *AssistantService) dispatchElementAction(ctx context.Context, intent *entity.Intent, el *entity.InteractiveElement, opts executor.Options) entity.ActionResult {
	switch intent.ActionType {
	case entity.ActionTypeClick:
		return s.executor.Click(ctx, el, opts)
	case entity.ActionTypeType:
		return s.executor.Type(ctx, el, intent.Payload, true, opts)
	case entity.ActionTypeFocus:
		return s.executor.Focus(ctx, el, opts)
	default:
		return entity.FailedResult(fmt.Sprintf("action %q does not target an element", intent.ActionType))
	}
}

func (s *AssistantService) buildAnswerPrompt(utterance string, summary *entity.PageSummary) string {
	var sb strings.Builder

	sb.WriteString("You are a voice assistant embedded in a web page. Answer the user's question about the page, briefly and concretely.\n\n")
	sb.WriteString(fmt.Sprintf("Page URL: %s\nPage title: %s\n", summary.URL, summary.Title))

	if summary.Excerpt != "" {
		sb.WriteString(fmt.Sprintf("Page content excerpt:\n%s\n", summary.Excerpt))
	}

	sb.WriteString(fmt.Sprintf("\nQuestion: %s\n", utterance))

	return sb.String()
}

func (s *AssistantService) fail(turn *entity.Turn, message string) *entity.Turn {
	turn.Status = entity.TurnStatusFailed
	turn.Error = message
	s.complete(turn)

	return turn
}

func (s *AssistantService) complete(turn *entity.Turn) {
	completedAt := time.Now()
	turn.CompletedAt = &completedAt
}

var scrollDirections = []string{"bottom", "top", "down", "up", "left", "right"}

// scrollDirection pulls the direction from the payload slot, falling back to
// a scan of the utterance, then to a plain downward scroll.
func scrollDirection(payload, utterance string) string {
	payload = strings.ToLower(strings.TrimSpace(payload))

	for _, d := range scrollDirections {
		if payload == d {
			return d
		}
	}

	lower := strings.ToLower(utterance)

	for _, d := range scrollDirections {
		if strings.Contains(lower, d) {
			return d
		}
	}

	return "down"
}

// navigationVerb normalizes the navigation slot; "reload" is accepted as a
// spoken synonym for refresh.
func navigationVerb(payload, utterance string) string {
	payload = strings.ToLower(strings.TrimSpace(payload))

	switch payload {
	case "back", "forward", "refresh":
		return payload
	case "reload":
		return "refresh"
	}

	lower := strings.ToLower(utterance)

	switch {
	case strings.Contains(lower, "back"):
		return "back"
	case strings.Contains(lower, "forward"):
		return "forward"
	case strings.Contains(lower, "refresh"), strings.Contains(lower, "reload"):
		return "refresh"
	}

	return payload
}

func confirmOnStdin(prompt string) bool {
	fmt.Printf("\n⚠️  Confirmation required\n%s\nConfirm (yes/no): ", prompt)

	scanner := bufio.NewScanner(os.Stdin)

	if scanner.Scan() {
		response := strings.ToLower(strings.TrimSpace(scanner.Text()))

		return response == "yes" || response == "y"
	}

	return false
}
