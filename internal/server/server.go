package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"lexivox/pkg/logger"

	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// Server is the HTTP front of the service.
type Server struct {
	srv *http.Server
}

func New(addr string, handler *Handler) *Server {
	mux := http.NewServeMux()
	handler.Register(mux)

	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return s.srv.Shutdown(shutdownCtx)
}
