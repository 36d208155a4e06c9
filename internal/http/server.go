package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dropDatabas3/ssojohn/internal/observability/logger"
)

// Serve levanta el servidor y lo apaga de forma ordenada cuando ctx se
// cancela. Los requests en vuelo tienen hasta 10s para terminar.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.L().Info("http server listening",
			logger.Component("http.server"),
			logger.String("addr", addr),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.L().Info("http server shutting down", logger.Component("http.server"))
		return srv.Shutdown(shCtx)
	}
}
