/*
Package server implements the application's network transport layer.
It builds the HTTP server, configures timeouts, and holds the services the
handlers depend on.
*/
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"FitAI_V1.0/internal/config"
	"FitAI_V1.0/internal/database"
	"FitAI_V1.0/internal/dietplan"
	"FitAI_V1.0/internal/geminiservice"
	"FitAI_V1.0/internal/storage"
)

// ChatModel answers chat messages given the earlier turns.
type ChatModel interface {
	Chat(ctx context.Context, history []geminiservice.Turn, message string) (string, error)
}

// PhotoService stores and reads profile photos.
type PhotoService interface {
	Upload(ctx context.Context, up storage.Upload) (string, error)
	Lookup(ctx context.Context, email string) (storage.Profile, error)
}

// Server defines the configuration and dependencies for the HTTP service.
type Server struct {
	// port specifies the TCP port the server will listen on.
	port int

	cfg config.Config

	// db is the plan store, used here for health reporting.
	db database.Service

	plans  *dietplan.Service
	photos PhotoService
	chat   ChatModel

	startedAt time.Time
}

// Deps are the collaborators built in main.
type Deps struct {
	DB     database.Service
	Plans  *dietplan.Service
	Photos PhotoService
	Chat   ChatModel
}

func New(cfg config.Config, deps Deps) *Server {
	return &Server{
		port:      cfg.Port,
		cfg:       cfg,
		db:        deps.DB,
		plans:     deps.Plans,
		photos:    deps.Photos,
		chat:      deps.Chat,
		startedAt: time.Now(),
	}
}

// NewServer returns a configured *http.Server. The write timeout leaves room
// for the plan-metadata call followed by the day calls.
func NewServer(cfg config.Config, deps Deps) *http.Server {
	app := New(cfg, deps)

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", app.port),
		Handler:           app.RegisterRoutes(),
		IdleTimeout:       time.Minute,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      2*cfg.GeminiCallTimeout + 30*time.Second,
	}
}
