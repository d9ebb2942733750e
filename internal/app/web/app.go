package webapp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"artemis/internal/config"
	"artemis/internal/lib/logger/sl"

	"github.com/gin-gonic/gin"
)

type App struct {
	log    *slog.Logger
	server *http.Server
	port   int
}

func New(log *slog.Logger, cfg *config.Config, router *gin.Engine) *App {
	return &App{
		log: log,
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
			Handler:      router,
			ReadTimeout:  cfg.HTTP.Timeout,
			WriteTimeout: cfg.HTTP.Timeout,
		},
		port: cfg.HTTP.Port,
	}
}

func (a *App) MustRun() {
	a.log.Info("HTTP server is running", slog.Int("port", a.port))

	if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		panic(err)
	}
}

func (a *App) Stop(ctx context.Context) {
	const op = "webapp.Stop"

	a.log.With(slog.String("op", op)).Info("stopping HTTP server", slog.Int("port", a.port))

	if err := a.server.Shutdown(ctx); err != nil {
		a.log.Error("failed to shut down HTTP server", sl.Err(err))
	}
}
