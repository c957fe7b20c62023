package console

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"web-voice-assistant/internal/config"
	"web-voice-assistant/internal/entity"
	"web-voice-assistant/internal/usecase"
	"web-voice-assistant/pkg/logg"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Interface is the typed-utterance front end. Voice transport is an external
// collaborator; anything typed here goes through the same pipeline a
// transcribed utterance would.
type Interface struct {
	config   *config.Config
	logger   *zap.Logger
	usecase  *usecase.Service
	ctx      context.Context
	cancel   context.CancelFunc
	sigChan  chan os.Signal
	stopping bool
}

type Params struct {
	fx.In

	Config  *config.Config
	Logger  *zap.Logger
	Usecase *usecase.Service
}

func NewInterface(params Params) *Interface {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)

	return &Interface{
		config:   params.Config,
		logger:   params.Logger.With(zap.String(logg.Layer, "Console")),
		usecase:  params.Usecase,
		ctx:      ctx,
		cancel:   cancel,
		sigChan:  sigChan,
		stopping: false,
	}
}

func (i *Interface) Start() error {
	i.printBanner()
	i.printHelp()

	signal.Notify(i.sigChan, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-i.sigChan
		fmt.Println("\n\n⚠️  Interrupt received, stopping...")
		i.stopping = true
		i.Stop()
	}()

	scanner := bufio.NewScanner(os.Stdin)

	for {
		if i.stopping {
			break
		}

		fmt.Print("\n> ")

		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())

		if input == "" {
			continue
		}

		if err := i.handleCommand(input); err != nil {
			if err.Error() == "exit" {
				break
			}

			i.logger.Error("Command error", zap.Error(err))
			fmt.Printf("Error: %v\n", err)
		}
	}

	return nil
}

func (i *Interface) Stop() error {
	if i.stopping {
		return nil
	}

	i.stopping = true
	i.logger.Info("Stopping console interface...")

	i.cancel()
	i.usecase.Assistant.Stop()

	fmt.Println("👋 Goodbye!")
	os.Exit(0)

	return nil
}

func (i *Interface) handleCommand(input string) error {
	switch input {
	case "help", "h":
		i.printHelp()

		return nil
	case "state", "customizations":
		i.printManipulations()

		return nil
	case "exit", "quit", "q":
		fmt.Println("Shutting down...")

		return fmt.Errorf("exit")
	default:
		return i.handleUtterance(input)
	}
}

func (i *Interface) handleUtterance(utterance string) error {
	fmt.Printf("\n🎙  %s\n", utterance)

	turn, err := i.usecase.Assistant.HandleUtterance(i.ctx, utterance)
	if err != nil {
		fmt.Printf("\n❌ %v\n", err)

		return nil
	}

	switch turn.Status {
	case entity.TurnStatusAnswered:
		fmt.Printf("\n💬 %s\n", turn.Answer)
	case entity.TurnStatusExecuted:
		fmt.Printf("\n✅ %s\n", turn.Result.Message)
	case entity.TurnStatusNeedsConfirmation:
		fmt.Printf("\n⚠️  %s\n", turn.Result.Message)
	default:
		fmt.Printf("\n❌ %s\n", turn.Error)
	}

	return nil
}

func (i *Interface) printManipulations() {
	active := i.usecase.Assistant.ActiveManipulations()

	if len(active) == 0 {
		fmt.Println("No page customizations active.")

		return
	}

	fmt.Println("Active page customizations:")

	for _, m := range active {
		fmt.Printf("  - %s (since %s)\n", m.Description, m.AppliedAt.Format("15:04:05"))
	}
}

func (i *Interface) printBanner() {
	banner := `
╔═══════════════════════════════════════════════════════════╗
║                                                           ║
║            🎙  Web Voice Assistant  🌐                    ║
║                                                           ║
║   Ask about the page, or tell it what to do on the page   ║
║                                                           ║
╚═══════════════════════════════════════════════════════════╝
`
	fmt.Println(banner)
}

func (i *Interface) printHelp() {
	help := `
Available commands:
  help, h               - Show this help message
  state, customizations - List active page customizations
  exit, quit, q         - Exit the application

Anything else is treated as an utterance:
  Examples:
    - what is this page about
    - click on the sign in button
    - Type Krishna in Go to file
    - make text larger
    - scroll to the bottom
`
	fmt.Println(help)
}
