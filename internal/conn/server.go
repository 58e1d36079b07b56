package conn

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/tobsdb/jqldb/internal/query"
	"github.com/tobsdb/jqldb/pkg"
)

type Server struct {
	Engine  *query.Engine
	Metrics *Metrics
}

// NewServer serves engine; metrics may be nil to disable /metrics.
func NewServer(engine *query.Engine, metrics *Metrics) *Server {
	return &Server{Engine: engine, Metrics: metrics}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	if s.Metrics != nil {
		mux.Handle("/metrics", s.Metrics.Handler())
	}
	mux.HandleFunc("/", s.HandleConnection)
	return mux
}

// Listen serves on addr until ctx is done. Sessions inherit ctx, so queries
// stuck on a table lock are released on shutdown.
func (s *Server) Listen(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:        addr,
		Handler:     s.Handler(),
		BaseContext: func(net.Listener) context.Context { return ctx },
		ErrorLog:    slog.NewLogLogger(pkg.Logger().Handler(), slog.LevelError),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	pkg.InfoLog("jqld listening", "addr", addr, "root", s.Engine.Store.Root)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	pkg.DebugLog("shutting down...")
	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdown); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
