package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"livequiz/internal/config"
	"livequiz/internal/game"
	"livequiz/internal/gateway"
	"livequiz/internal/logging"
	"livequiz/internal/server"
	"livequiz/pkg/ws"
)

// Application aggregates the session core and the HTTP server.
type Application struct {
	cfg    *config.App
	logger zerolog.Logger
	http   *http.Server
}

// New bootstraps config, logger, question bank, registry, session and the
// HTTP server. Join tokens are printed to the operator console here; that
// is their only distribution channel.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger.Info().Msg("starting application bootstrap")

	bank, err := game.LoadQuestionBank(cfg.Game.QuestionsFile)
	if err != nil {
		return nil, fmt.Errorf("load question bank: %w", err)
	}
	logger.Info().Int("questions", bank.Count()).Str("file", cfg.Game.QuestionsFile).Msg("question bank loaded")

	registry := game.NewRegistry(cfg.Game.TeamSlots, logger)
	hub := ws.NewHub(logger)
	session := game.NewSession(bank, registry, hub, game.Options{
		QuestionSeconds:  cfg.Game.QuestionSeconds,
		PointsPerCorrect: cfg.Game.PointsPerCorrect,
	}, logger)

	wsHandler := gateway.NewHandler(session, registry, hub, cfg.FrontendURL, logger)
	apiHandlers := gateway.NewHTTPHandlers(session, bank, registry, cfg.FrontendURL, logger)

	httpServer := server.NewHTTPServer(cfg, server.Routes{
		WebSocket:     wsHandler.HandleWebSocket,
		GameState:     apiHandlers.GetGameState,
		Questions:     apiHandlers.GetQuestions,
		TeamURLs:      apiHandlers.GetTeamURLs,
		StartQuestion: apiHandlers.StartQuestion,
		RevealAnswers: apiHandlers.RevealAnswers,
		ResetGame:     apiHandlers.ResetGame,
	})

	printTeamURLs(registry, cfg.FrontendURL)

	return &Application{
		cfg:    cfg,
		logger: logger,
		http:   httpServer,
	}, nil
}

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}

	a.logger.Info().Msg("shutdown complete")
	return nil
}

// printTeamURLs writes the join URLs to stdout for out-of-band
// distribution, one line per slot.
func printTeamURLs(registry *game.Registry, frontendURL string) {
	urls := registry.TeamURLs(frontendURL)

	fmt.Println()
	fmt.Println("=== TEAM JOIN URLS ===")
	for _, slotID := range registry.SlotIDs() {
		fmt.Printf("%-8s %s\n", slotID+":", urls[slotID])
	}
	fmt.Println("======================")
	fmt.Println()
}
