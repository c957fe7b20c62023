package usecase

import (
	"web-voice-assistant/internal/catalog"
	"web-voice-assistant/internal/config"
	"web-voice-assistant/internal/executor"
	"web-voice-assistant/internal/manipulate"
	"web-voice-assistant/internal/ports"
	"web-voice-assistant/internal/usecase/adapters"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Service struct {
	Assistant adapters.AssistantService
	Browser   adapters.BrowserService
	Model     adapters.ModelService
}

type Params struct {
	fx.In

	Logger      *zap.Logger
	Config      *config.Config
	Driver      ports.PageDriver
	Model       ports.TextModel
	Scanner     *catalog.Scanner
	Classifier  ports.IntentClassifier
	Resolver    ports.ElementResolver
	Executor    *executor.Executor
	Manipulator *manipulate.Manager
}

func NewUsecase(params Params) *Service {
	factory := newServiceFactory(params)

	return &Service{
		Assistant: factory.CreateAssistantService(),
		Browser:   factory.CreateBrowserService(),
		Model:     factory.CreateModelService(),
	}
}
