package config

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// App holds core runtime configuration.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"livequiz"`
	Env                     string        `env:"APP_ENV" envDefault:"development"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	FrontendURL             string        `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_SECONDS" envDefault:"10s"`

	Game Game
	CORS CORS
}

// Game groups gameplay defaults.
type Game struct {
	QuestionsFile    string `env:"QUESTIONS_FILE" envDefault:"configs/questions.json"`
	TeamSlots        int    `env:"TEAM_SLOTS" envDefault:"10"`
	QuestionSeconds  int    `env:"QUESTION_SECONDS" envDefault:"20"`
	PointsPerCorrect int    `env:"POINTS_PER_CORRECT" envDefault:"100"`
}

// CORS holds Cross-Origin Resource Sharing configuration.
type CORS struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://127.0.0.1:3000"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS" envSeparator:"," envDefault:"GET,POST,OPTIONS"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS" envSeparator:"," envDefault:"Content-Type"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS" envDefault:"true"`
	MaxAge           int      `env:"CORS_MAX_AGE" envDefault:"3600"`
}

// Load parses environment variables into App config.
func Load(ctx context.Context) (*App, error) {
	cfg := &App{}
	if err := env.ParseWithOptions(cfg, env.Options{}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Game.TeamSlots <= 0 {
		return nil, fmt.Errorf("TEAM_SLOTS must be positive")
	}
	if cfg.Game.QuestionSeconds <= 0 {
		return nil, fmt.Errorf("QUESTION_SECONDS must be positive")
	}
	return cfg, nil
}
