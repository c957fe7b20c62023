package usecase

import (
	"web-voice-assistant/internal/usecase/adapters"
)

type serviceFactory struct {
	deps Params
}

func newServiceFactory(deps Params) *serviceFactory {
	return &serviceFactory{
		deps: deps,
	}
}

func (f *serviceFactory) CreateAssistantService() adapters.AssistantService {
	return NewAssistantService(AssistantServiceParams{
		Config:      f.deps.Config,
		Logger:      f.deps.Logger,
		Driver:      f.deps.Driver,
		Model:       f.deps.Model,
		Scanner:     f.deps.Scanner,
		Classifier:  f.deps.Classifier,
		Resolver:    f.deps.Resolver,
		Executor:    f.deps.Executor,
		Manipulator: f.deps.Manipulator,
	})
}

func (f *serviceFactory) CreateBrowserService() adapters.BrowserService {
	return f.deps.Driver
}

func (f *serviceFactory) CreateModelService() adapters.ModelService {
	return f.deps.Model
}
