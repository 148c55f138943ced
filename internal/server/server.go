package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/julianstephens/dayring/internal/logger"
	"github.com/julianstephens/dayring/internal/storage"
)

type Options struct {
	// Token, when set, is required as a bearer token on every request.
	Token string
}

// Server is the habit backend the device syncs against.
type Server struct {
	store storage.Provider
	token string
	mux   *http.ServeMux
}

func New(store storage.Provider, opts Options) *Server {
	s := &Server{store: store, token: opts.Token, mux: http.NewServeMux()}

	s.mux.HandleFunc("POST /habit/{habit}", s.addDays)
	s.mux.HandleFunc("DELETE /habit/{habit}", s.deleteDays)
	s.mux.HandleFunc("GET /habit/{habit}", s.history)
	s.mux.HandleFunc("GET /habit/{habit}/streak", s.streak)
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return s
}

func (s *Server) Handler() http.Handler {
	return requestLog(s.auth(s.mux))
}

// ListenAndServe serves until ctx is cancelled, then drains in-flight
// requests.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("backend listening", "addr", addr, "store", s.store.GetConfigPath())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logger.Info("backend shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}
