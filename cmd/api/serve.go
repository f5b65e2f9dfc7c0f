package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// serve runs server until a signal arrives on quit or the listener fails,
// then shuts it down. It always returns, so callers' deferred cleanup runs.
func serve(server *http.Server, quit <-chan os.Signal, timeout time.Duration, log logrus.FieldLogger) error {
	serverErr := make(chan error, 1)
	go func() {
		log.WithField("addr", server.Addr).Info("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	var listenErr error
	select {
	case sig := <-quit:
		log.WithField("signal", sig.String()).Info("shutting down")
	case listenErr = <-serverErr:
		log.WithError(listenErr).Error("server failed, shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return errors.Join(listenErr, err)
	}
	return listenErr
}
