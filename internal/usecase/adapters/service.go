package adapters

import (
	"context"

	"web-voice-assistant/internal/entity"
)

type AssistantService interface {
	HandleUtterance(ctx context.Context, utterance string) (*entity.Turn, error)
	ActiveManipulations() []entity.Manipulation
	Stop()
}

type BrowserService interface {
	Launch(ctx context.Context) error
	Close(ctx context.Context) error
	IsReady() bool
}

type ModelService interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
