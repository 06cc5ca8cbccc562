package cmd

import (
	"context"
	"errors"
	"fmt"
	httpNet "net/http"
	"time"

	"stock-dynamic/internal/delivery/http"
	"stock-dynamic/pkg/logger"
	"stock-dynamic/pkg/middleware"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analysis and backtest HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("port", 0, "HTTP listen port")
	serveCmd.Flags().String("source", "", "bar source: yahoo or csv")
}

type HTTPServer struct {
	appDep *AppDependency
	echo   *echo.Echo
}

func NewHTTPServer(appDep *AppDependency) *HTTPServer {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.RequestLoggerWithConfig(echoMiddleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v echoMiddleware.RequestLoggerValues) error {
			appDep.log.Debug("Request",
				logger.StringField("method", v.Method),
				logger.StringField("uri", v.URI),
				logger.IntField("status", v.Status),
				logger.DurationField("latency", v.Latency),
				logger.ErrorField(v.Error),
			)
			return nil
		},
	}))
	e.Use(middleware.NewRateLimiterMiddleware(appDep.cfg.API))

	// reports are returned in the response, not echoed to a console
	services := appDep.Services(nil)
	http.NewHttpAPIHandler(e, appDep.validator, services, appDep.repo.ResultStore, appDep.log).SetupRoutes()

	return &HTTPServer{appDep: appDep, echo: e}
}

func (s *HTTPServer) Start() error {
	s.appDep.log.Info("Starting HTTP server", logger.IntField("port", s.appDep.cfg.API.Port))
	return s.echo.Start(fmt.Sprintf(":%d", s.appDep.cfg.API.Port))
}

func (s *HTTPServer) Stop(ctx context.Context) error {
	s.appDep.log.Info("Shutting down HTTP server")

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.echo.Shutdown(ctx); err != nil {
		s.appDep.log.Error("Error when stopping HTTP server", logger.ErrorField(err))
		return err
	}
	s.appDep.log.Info("HTTP server stopped successfully")
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext(cmd)
	defer stop()

	app, err := setup(cmd, false)
	if err != nil {
		return err
	}
	defer app.Close()

	server := NewHTTPServer(app)
	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, httpNet.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	app.log.Info("Shutting down gracefully...")
	return server.Stop(context.Background())
}
