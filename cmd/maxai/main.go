// Command maxai runs the MaxAI reasoning assistant as a web app or a terminal chat.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/cloudwego/eino/components/model"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/zhouzirui/maxai/internal/config"
	"github.com/zhouzirui/maxai/internal/logger"
	"github.com/zhouzirui/maxai/internal/model/persona"
	"github.com/zhouzirui/maxai/internal/service/ai"
	"github.com/zhouzirui/maxai/internal/service/chat"
)

type rootOptions struct {
	envFile string
}

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "maxai",
		Short:         "MaxAI, an advanced reasoning assistant",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	root.AddCommand(newServeCommand(opts), newChatCommand(opts))
	return root
}

// app holds the wired collaborators shared by every surface.
type app struct {
	Config     *config.Config
	Log        zerolog.Logger
	Persona    persona.Persona
	AI         *ai.Service
	Controller *chat.Controller

	closeLog func() error
}

func (a *app) Close() {
	_ = a.closeLog()
}

// bootstrap loads configuration and builds the controller. Logs go to LOG_FILE when
// set, otherwise to fallback.
func bootstrap(ctx context.Context, opts *rootOptions, fallback io.Writer) (*app, error) {
	envErr := godotenv.Load(opts.envFile)

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	out, closeLog, err := logger.Open(cfg.Log, fallback)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.Log, out)
	if err != nil {
		_ = closeLog()
		return nil, err
	}

	if envErr != nil {
		log.Warn().Err(envErr).Str("file", opts.envFile).Msg("continuing with system environment variables only")
	}

	if cfg.Storage.Enabled() {
		log.Info().Str("project", cfg.Storage.ProjectID).Msg("firebase credentials present; conversations are still kept in memory")
	} else {
		log.Debug().Msg("firebase credentials not configured")
	}

	var chatModel model.BaseChatModel
	if cfg.AI.Configured() {
		chatModel, err = cfg.AI.NewChatModel(ctx)
		if err != nil {
			log.Warn().Err(err).Str("provider", cfg.AI.Provider).Msg("failed to initialize chat model, running mocked")
			chatModel = nil
		} else {
			log.Info().Str("provider", cfg.AI.Provider).Str("model", cfg.AI.Model).Msg("chat model initialized")
		}
	}

	aiSvc := ai.NewService(cfg.AI, chatModel, logger.Component(log, "ai"))
	p := persona.Default()
	ctrl := chat.NewController(aiSvc, p.OpeningLine, chat.WithLogger(logger.Component(log, "chat")))

	return &app{
		Config:     cfg,
		Log:        log,
		Persona:    p,
		AI:         aiSvc,
		Controller: ctrl,
		closeLog:   closeLog,
	}, nil
}
