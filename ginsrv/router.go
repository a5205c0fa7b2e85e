package ginsrv

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
}

func SetupRouter(routes []Route, middlewares ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()

	// Middlewares run in the order given
	router.Use(middlewares...)

	for _, route := range routes {
		router.Handle(route.Method, route.Path, route.Handler)
	}

	return router
}

// ShutdownTimeout bounds how long Serve waits for in-flight requests once ctx is done.
const ShutdownTimeout = 10 * time.Second

// Serve runs handler on addr until ctx is canceled, then shuts the server down gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler, logger *zap.Logger) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	logger.Info("http server shutting down")
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
