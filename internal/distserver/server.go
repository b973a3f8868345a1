package distserver

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/klauspost/compress/gzhttp"

	"git.home.luguber.info/inful/webbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/webbuilder/internal/logfields"
	smw "git.home.luguber.info/inful/webbuilder/internal/server/middleware"
)

const shutdownTimeout = 5 * time.Second

// Server serves a directory with the dist cache policy.
type Server struct {
	dir      string
	port     int
	handler  http.Handler
	onListen func(net.Addr)
}

// Option configures a Server.
type Option func(*Server)

// WithListenHook is called with the bound address once the port is open.
func WithListenHook(fn func(net.Addr)) Option {
	return func(s *Server) { s.onListen = fn }
}

// New creates a server for dir on port. Port 0 binds an ephemeral port.
func New(dir string, port int, opts ...Option) (*Server, error) {
	s := &Server{dir: dir, port: port}
	for _, opt := range opts {
		opt(s)
	}
	h, err := Handler(dir)
	if err != nil {
		return nil, err
	}
	s.handler = h
	return s, nil
}

// Handler returns the file server with compression, cache policy, request
// logging and panic recovery applied.
func Handler(dir string) (http.Handler, error) {
	gz, err := gzhttp.NewWrapper(gzhttp.MinSize(0))
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "failed to configure compression").Build()
	}
	files := http.FileServer(http.Dir(dir))
	chain := smw.Chain(slog.Default(), errors.NewHTTPErrorAdapter(slog.Default()))
	return chain(gz(cacheControl(files))), nil
}

// ListenAndServe binds the port and serves until ctx is cancelled, then
// shuts down gracefully. A bind failure is returned before anything is served.
func (s *Server) ListenAndServe(ctx context.Context) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return errors.ServerError("failed to bind dist server port").
			WithCause(err).
			WithContext("port", s.port).
			Build()
	}

	port := s.port
	if tcp, ok := ln.Addr().(*net.TCPAddr); ok {
		port = tcp.Port
	}
	url := fmt.Sprintf("http://localhost:%d", port)
	slog.Info("Dist server is running at "+url, logfields.Port(port), logfields.Path(s.dir))
	if s.onListen != nil {
		s.onListen(ln.Addr())
	}

	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return errors.ServerError("dist server failed").WithCause(err).WithContext("port", port).Build()
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.ServerError("dist server shutdown failed").WithCause(err).Build()
	}
	slog.Info("Dist server stopped", logfields.Port(port))
	return nil
}
