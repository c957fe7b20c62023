package bootstrap

import (
	"time"

	"web-voice-assistant/internal/ai"
	"web-voice-assistant/internal/browser"
	"web-voice-assistant/internal/catalog"
	"web-voice-assistant/internal/config"
	"web-voice-assistant/internal/console"
	"web-voice-assistant/internal/executor"
	"web-voice-assistant/internal/intent"
	"web-voice-assistant/internal/manipulate"
	"web-voice-assistant/internal/ports"
	"web-voice-assistant/internal/resolver"
	"web-voice-assistant/internal/usecase"

	"go.uber.org/fx"
)

func NewApp() *fx.App {
	return fx.New(
		fx.Provide(
			config.GetConfig,
			newLogger,
			newTraceProvider,

			fx.Annotate(browser.NewManager, fx.As(new(ports.PageDriver))),
			fx.Annotate(ai.NewClient, fx.As(new(ports.TextModel))),
			fx.Annotate(intent.NewClassifier, fx.As(new(ports.IntentClassifier))),
			fx.Annotate(resolver.NewResolver, fx.As(new(ports.ElementResolver))),

			catalog.NewScanner,
			executor.NewExecutor,
			manipulate.NewManager,

			usecase.NewUsecase,

			console.NewInterface,
		),

		fx.Invoke(
			runConsole,
		),

		fx.StartTimeout(10*time.Second),
	)
}
