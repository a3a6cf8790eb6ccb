package telemetry

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

// Server is the loopback-only /metrics + /healthz HTTP server of spec
// §4.9. It never binds anything other than 127.0.0.1, so telemetry
// never becomes a network-egress surface.
type Server struct {
	httpServer *http.Server
	listener   net.Listener
}

// NewServer builds a Server bound to 127.0.0.1:port (port 0 picks a
// free port; callers read it back via Addr after Start).
func NewServer(metrics *Metrics, port int) *Server {
	router := chi.NewRouter()
	router.Get("/metrics", metrics.Handler().ServeHTTP)
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return &Server{
		httpServer: &http.Server{
			Addr:              addrFor(port),
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

func addrFor(port int) string {
	if port <= 0 {
		return "127.0.0.1:0"
	}
	return "127.0.0.1:" + strconv.Itoa(port)
}

// Start binds the loopback listener and begins serving in the
// background. Call Addr afterward to discover the bound port.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	s.listener = ln
	go func() {
		_ = s.httpServer.Serve(ln)
	}()
	return nil
}

// Addr returns the bound address, valid after Start succeeds.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
