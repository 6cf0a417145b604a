package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/fragworks/fragforge/internal/logger"
)

// Server accepts websocket connections and feeds their JSON requests through
// the dispatcher, one at a time per connection.
type Server struct {
	dispatcher *Dispatcher
	log        *logger.Logger
	upgrader   websocket.Upgrader
	httpServer *http.Server
}

// NewServer creates a Server listening on addr.
func NewServer(addr string, dispatcher *Dispatcher, log *logger.Logger) *Server {
	s := &Server{
		dispatcher: dispatcher,
		log:        log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	s.httpServer = &http.Server{Addr: addr, Handler: s}
	return s
}

// ListenAndServe blocks serving connections until Shutdown.
func (s *Server) ListenAndServe() error {
	if s.log != nil {
		s.log.WithFields(map[string]any{"addr": s.httpServer.Addr}).Info("transport listening")
	}
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		if s.log != nil {
			s.log.Error(err, "websocket upgrade failed")
		}
		return
	}
	defer conn.Close()

	for {
		var req Request
		if err := conn.ReadJSON(&req); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				if s.log != nil {
					s.log.Debug("connection closed: " + err.Error())
				}
			}
			return
		}

		resp := s.dispatcher.Dispatch(req)
		if err := conn.WriteJSON(resp); err != nil {
			if s.log != nil {
				s.log.Error(err, "write response failed")
			}
			return
		}
	}
}
