// Package wsaudio provides an optional network audio ingress for
// wakeengine: a websocket endpoint that accepts binary PCM frames and
// feeds them into a running Pipeline, for deployments where the audio
// producer is a remote device rather than a local stdin pipe
// (SPEC_FULL.md §6, "Network audio ingress").
package wsaudio

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/kestrelaudio/wakeengine/pkg/wakeengine"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server accepts one or more websocket connections and forwards every
// binary message received on each to Pipeline.PushAudio, treating a
// closed connection the same as stdin EOF for that source.
type Server struct {
	Addr     string
	Pipeline *wakeengine.Pipeline
	Log      *slog.Logger
}

// ListenAndServe blocks serving audio connections until ctx is canceled,
// then shuts down and returns nil.
func (s *Server) ListenAndServe(ctx context.Context) error {
	log := s.Log
	if log == nil {
		log = slog.Default()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/audio", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Error("websocket upgrade failed", "error", err)
			return
		}
		defer conn.Close()
		log.Info("audio connection accepted", "remote", r.RemoteAddr)

		for {
			mt, data, err := conn.ReadMessage()
			if err != nil {
				log.Info("audio connection closed", "remote", r.RemoteAddr, "error", err)
				return
			}
			if mt != websocket.BinaryMessage {
				continue
			}
			s.Pipeline.PushAudio(data)
		}
	})

	srv := &http.Server{Addr: s.Addr, Handler: mux}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	log.Info("audio websocket listening", "addr", s.Addr)
	err := srv.ListenAndServe()
	if err != nil && errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
