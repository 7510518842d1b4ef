package websocket

import (
	"context"
	"crm-realtime/contract"
	"crm-realtime/domain/event"
	crmerrors "crm-realtime/errors"
	"crm-realtime/observability"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const MalformedPayload = "Malformed JSON payload."

type Config struct {
	SendBufferSize int
	WriteTimeout   time.Duration
	PongWait       time.Duration
	MaxMessageSize int64
}

func (c Config) pingPeriod() time.Duration {
	return c.PongWait * 9 / 10
}

// Session is one live WebSocket connection bound to a single group.
// Inbound frames are handled one at a time, in arrival order.
type Session struct {
	id       string
	userID   string
	endpoint Endpoint
	conn     *websocket.Conn
	send     chan []byte
	done     chan struct{}
	once     sync.Once
	code     atomic.Int32
	cfg      Config
	log      *slog.Logger
	metrics  *observability.Counters
}

func newSession(endpoint Endpoint, userID string, cfg Config, log *slog.Logger, metrics *observability.Counters) *Session {
	id := uuid.NewString()
	s := &Session{
		id:       id,
		userID:   userID,
		endpoint: endpoint,
		send:     make(chan []byte, cfg.SendBufferSize),
		done:     make(chan struct{}),
		cfg:      cfg,
		log:      log.With("session_id", id, "group", endpoint.Group),
		metrics:  metrics,
	}
	s.code.Store(websocket.CloseNoStatusReceived)
	return s
}

func (s *Session) ID() string {
	return s.id
}

// Consume queues a frame for the write pump without blocking the publisher.
func (s *Session) Consume(_ context.Context, payload []byte) error {
	select {
	case <-s.done:
		return crmerrors.ErrConnectionClosed
	default:
	}
	select {
	case s.send <- payload:
		return nil
	case <-s.done:
		return crmerrors.ErrConnectionClosed
	default:
		return crmerrors.ErrSlowConsumer
	}
}

// run owns the session until the peer leaves or ctx is cancelled.
// Memberships are always dropped on the way out.
func (s *Session) run(ctx context.Context, registry contract.IRegistry) {
	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		registry.LeaveAll(s.id)
		s.close()
		s.metrics.ConnectionClosed()
		s.log.Info("WebSocket disconnected", "code", s.code.Load())
	}()

	s.log.Info("WebSocket connected", "user_id", s.userID)
	frames := make(chan []byte)
	go s.writePump()
	go s.readPump(cancel, frames)

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case frame, ok := <-frames:
			if !ok {
				return
			}
			s.process(ctx, frame)
		}
	}
}

// readPump feeds frames to the processing loop. A read error ends the session
// and cancels whatever handler is still running for it.
func (s *Session) readPump(cancel context.CancelFunc, frames chan<- []byte) {
	defer cancel()
	defer close(frames)

	s.conn.SetReadLimit(s.cfg.MaxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(s.cfg.PongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(s.cfg.PongWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			s.code.Store(int32(closeCode(err)))
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				s.log.Debug("Read failed", "error", err)
			}
			return
		}
		select {
		case frames <- data:
		case <-s.done:
			return
		}
	}
}

func (s *Session) writePump() {
	ticker := time.NewTicker(s.cfg.pingPeriod())
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case payload := <-s.send:
			if err := s.write(websocket.TextMessage, payload); err != nil {
				s.log.Debug("Write failed", "error", err)
				s.close()
				return
			}
		case <-ticker.C:
			if err := s.write(websocket.PingMessage, nil); err != nil {
				s.log.Debug("Ping failed", "error", err)
				s.close()
				return
			}
		case <-s.done:
			s.flush()
			_ = s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(s.cfg.WriteTimeout))
			return
		}
	}
}

// flush writes what is still buffered, the last error reply included.
func (s *Session) flush() {
	for {
		select {
		case payload := <-s.send:
			if err := s.write(websocket.TextMessage, payload); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (s *Session) write(messageType int, payload []byte) error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	return s.conn.WriteMessage(messageType, payload)
}

func (s *Session) close() {
	s.once.Do(func() { close(s.done) })
}

// process decodes one frame and dispatches it. Failures are reported to this
// connection only and never end the session.
func (s *Session) process(ctx context.Context, frame []byte) {
	s.metrics.IncrFrames()
	s.log.Debug("Received data", "payload", string(frame))

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(frame, &fields); err != nil || fields == nil {
		s.reply(event.NewErrorMessage(MalformedPayload))
		return
	}

	handler, ok := s.endpoint.Route(fields)
	if !ok {
		s.log.Debug("No handler, payload ignored")
		return
	}
	if err := handler.Handle(ctx, frame); err != nil {
		s.metrics.IncrErrors()
		if envelope, ok := toEnvelope(err, s.log); ok {
			s.reply(envelope)
		}
	}
}

func (s *Session) reply(envelope event.Error) {
	payload, err := event.Encode(envelope)
	if err != nil {
		s.log.Error("Unable to encode reply", "error", err)
		return
	}
	if err := s.Consume(context.Background(), payload); err != nil {
		s.log.Warn("Reply dropped", "error", err)
	}
}

func closeCode(err error) int {
	if ce, ok := err.(*websocket.CloseError); ok {
		return ce.Code
	}
	return websocket.CloseAbnormalClosure
}
