package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/go-faster/errors"

	"github.com/Skotchmaster/kolshi/pkg/logging"
)

const shutdownTimeout = 10 * time.Second

// serve runs srv until it fails to serve or a signal arrives on quit. On a
// signal the server is shut down gracefully.
func serve(ctx context.Context, srv *http.Server, quit <-chan os.Signal) error {
	l := logging.FromContext(ctx)

	errCh := make(chan error, 1)
	go func() {
		l.Info("server_starting", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "listen")
	case sig := <-quit:
		l.Info("server_stopping", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	return nil
}
