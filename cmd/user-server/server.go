package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/rzpsarthak13/sqlobjects/pkg/sqlobjects"
)

// newServer builds the echo instance with request logging, panic recovery
// and the user routes.
func newServer(client *sqlobjects.Client, users *sqlobjects.Table[User], logger zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler(logger)

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLogger(logger))

	e.GET("/health", health(client))
	newUserHandler(users).register(e)
	return e
}

func requestLogger(logger zerolog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogError:     true,
		LogLatency:   true,
		LogMethod:    true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			status := v.Status
			// The error handler has not written the response yet.
			if v.Error != nil {
				status, _ = classify(v.Error)
			}

			var ev *zerolog.Event
			switch {
			case status >= 500:
				ev = logger.Error().Err(v.Error)
			case status >= 400:
				ev = logger.Warn()
			default:
				ev = logger.Info()
			}
			ev.Str("request_id", v.RequestID).
				Dur("latency", v.Latency).
				Int("status", status).
				Str("method", v.Method).
				Str("uri", v.URI).
				Msg("API")
			return nil
		},
	})
}

func health(client *sqlobjects.Client) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		checks := map[string]string{"database": "healthy"}
		if _, err := client.Conn().Query(ctx, "SELECT 1"); err != nil {
			status = http.StatusServiceUnavailable
			checks["database"] = "unhealthy: " + err.Error()
		}
		if feed := client.Feed(); feed != nil {
			checks["feed_backlog"] = strconv.Itoa(feed.Size())
		}

		return c.JSON(status, map[string]any{
			"status":    http.StatusText(status),
			"timestamp": time.Now().UTC(),
			"checks":    checks,
			"caches":    client.Registry().CacheSizes(),
		})
	}
}

// serve runs e until ctx is done, then shuts it down gracefully.
func serve(ctx context.Context, e *echo.Echo, addr string, logger zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("http server listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
