package server

import (
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"livequiz/internal/config"
)

// WSUpgrader handles WebSocket upgrades. Origin checking is permissive:
// admission is controlled by possession tokens, not by origin.
var WSUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Routes carries the gateway handlers so the server package stays free of
// gateway imports.
type Routes struct {
	WebSocket     http.HandlerFunc
	GameState     http.HandlerFunc
	Questions     http.HandlerFunc
	TeamURLs      http.HandlerFunc
	StartQuestion http.HandlerFunc
	RevealAnswers http.HandlerFunc
	ResetGame     http.HandlerFunc
}

// NewHTTPServer wires the REST surface, the WebSocket endpoint and the
// operational routes (landing page, health, metrics) behind CORS.
func NewHTTPServer(cfg *config.App, routes Routes) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, landingPage, cfg.FrontendURL, cfg.FrontendURL, cfg.FrontendURL, cfg.FrontendURL)
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/ws", routes.WebSocket)

	mux.HandleFunc("/api/game-state", routes.GameState)
	mux.HandleFunc("/api/questions", routes.Questions)
	mux.HandleFunc("/api/team-urls", routes.TeamURLs)
	mux.HandleFunc("/api/start-question", routes.StartQuestion)
	mux.HandleFunc("/api/reveal-answers", routes.RevealAnswers)
	mux.HandleFunc("/api/reset-game", routes.ResetGame)

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           cfg.CORS.MaxAge,
	})

	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: corsMiddleware.Handler(mux),
	}
}

const landingPage = `<h1>Live Quiz Backend</h1>
<p>Server is running.</p>
<h2>Available Endpoints:</h2>
<ul>
  <li><a href="/api/game-state">/api/game-state</a> - Current game state</li>
  <li><a href="/api/questions">/api/questions</a> - All quiz questions</li>
  <li><a href="/api/team-urls">/api/team-urls</a> - Team join URLs</li>
  <li>POST /api/start-question - Start a question</li>
  <li>POST /api/reveal-answers - Reveal answers</li>
  <li>POST /api/reset-game - Reset game</li>
</ul>
<p>Frontend: <a href="%s">%s</a></p>
<p>Quizmaster: <a href="%s/quizmaster">%s/quizmaster</a></p>
`
