// Package wsingest accepts per-speaker PCM streams over websocket and feeds
// them into the session core. Binary messages carry raw audio chunks; text
// messages carry control commands.
package wsingest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mwidjaja/callscribe/pkg/logging"
	"github.com/mwidjaja/callscribe/pkg/transports"
)

type Config struct {
	ServerAddr     string   `mapstructure:"server_addr"`
	IngestPath     string   `mapstructure:"ingest_path"`
	AllowAnyOrigin bool     `mapstructure:"allow_any_origin"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

func (c Config) withDefaults() Config {
	if c.ServerAddr == "" {
		c.ServerAddr = ":8090"
	}
	if c.IngestPath == "" {
		c.IngestPath = "/ingest"
	}
	if !c.AllowAnyOrigin && len(c.AllowedOrigins) == 0 {
		c.AllowAnyOrigin = true
	}
	return c
}

// control is the JSON payload of text messages on an ingest connection.
type control struct {
	Type string `json:"type"` // "start", "stop", "name", "leave"
	Name string `json:"name,omitempty"`
}

// reply is sent back for "stop" commands, carrying the final transcript.
type reply struct {
	Type       string `json:"type"`
	Transcript string `json:"transcript,omitempty"`
}

type Transport struct {
	cfg      Config
	sink     transports.Sink
	upgrader websocket.Upgrader
	server   *http.Server
	logger   *slog.Logger
	draining atomic.Bool
}

func New(cfg Config, sink transports.Sink) *Transport {
	cfg = cfg.withDefaults()
	t := &Transport{
		cfg:  cfg,
		sink: sink,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
		logger: logging.NewComponentLogger(slog.Default(), "wsingest"),
	}
	t.upgrader.CheckOrigin = t.checkOrigin
	return t
}

func (t *Transport) Name() string { return "wsingest" }

func (t *Transport) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	mux := http.NewServeMux()
	mux.Handle(t.cfg.IngestPath, t)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	t.server = &http.Server{
		Addr:              t.cfg.ServerAddr,
		ReadHeaderTimeout: 5 * time.Second,
		Handler:           mux,
	}
	go func() {
		<-ctx.Done()
		_ = t.Stop()
	}()
	go func() {
		if err := t.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.logger.Error("ingest_server_error", "error", err.Error())
		}
	}()
	t.logger.Info("ingest_server_started", "addr", t.cfg.ServerAddr, "path", t.cfg.IngestPath)
	return nil
}

func (t *Transport) Stop() error {
	if !t.draining.CompareAndSwap(false, true) {
		return nil
	}
	if t.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return t.server.Shutdown(ctx)
}

func (t *Transport) checkOrigin(r *http.Request) bool {
	if t.cfg.AllowAnyOrigin {
		return true
	}
	origin := r.Header.Get("Origin")
	for _, allowed := range t.cfg.AllowedOrigins {
		if strings.EqualFold(origin, allowed) {
			return true
		}
	}
	return false
}

// ServeHTTP upgrades an ingest connection. One connection carries exactly
// one call/speaker pair, identified by query parameters.
func (t *Transport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	callID := r.URL.Query().Get("call")
	speakerID := r.URL.Query().Get("speaker")
	if callID == "" || speakerID == "" {
		http.Error(w, "call and speaker query parameters are required", http.StatusBadRequest)
		return
	}

	conn, err := t.upgrader.Upgrade(w, r, nil)
	if err != nil {
		t.logger.Error("upgrade_failed", "error", err.Error())
		return
	}
	defer conn.Close()

	t.logger.Info("speaker_connected", "call_id", callID, "speaker_id", speakerID)
	t.readLoop(r.Context(), conn, callID, speakerID)
	t.logger.Info("speaker_disconnected", "call_id", callID, "speaker_id", speakerID)
}

func (t *Transport) readLoop(ctx context.Context, conn *websocket.Conn, callID, speakerID string) {
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				t.logger.Debug("read_ended", "call_id", callID, "error", err.Error())
			}
			return
		}
		switch msgType {
		case websocket.BinaryMessage:
			t.sink.IngestAudioChunk(callID, speakerID, data)
		case websocket.TextMessage:
			if done := t.handleControl(ctx, conn, callID, speakerID, data); done {
				return
			}
		}
	}
}

func (t *Transport) handleControl(ctx context.Context, conn *websocket.Conn, callID, speakerID string, data []byte) bool {
	var cmd control
	if err := json.Unmarshal(data, &cmd); err != nil {
		t.logger.Warn("bad_control_message", "call_id", callID, "error", err.Error())
		return false
	}
	switch cmd.Type {
	case "start":
		t.sink.StartRecording(callID)
	case "name":
		t.sink.SetSpeakerName(callID, speakerID, cmd.Name)
	case "stop":
		transcript := t.sink.StopRecording(ctx, callID)
		if err := conn.WriteJSON(reply{Type: "transcript", Transcript: transcript}); err != nil {
			t.logger.Warn("transcript_send_failed", "call_id", callID, "error", err.Error())
		}
	case "leave":
		t.sink.RemoveSession(callID)
		return true
	default:
		t.logger.Warn("unknown_control_type", "call_id", callID, "type", cmd.Type)
	}
	return false
}

var _ transports.Transport = (*Transport)(nil)
