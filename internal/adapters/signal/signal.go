package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/dkeye/Consult/internal/app"
	"github.com/dkeye/Consult/internal/app/orch"
	"github.com/dkeye/Consult/internal/core"
	"github.com/dkeye/Consult/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrClosed       = errors.New("connection closed")
)

type Options struct {
	ReadLimit    int64
	PingPeriod   time.Duration
	WriteTimeout time.Duration
	SendBuffer   int
	// RateLimit inbound messages per RateInterval per user; 0 disables it.
	RateLimit    int
	RateInterval time.Duration
}

func (o Options) withDefaults() Options {
	if o.ReadLimit <= 0 {
		o.ReadLimit = 32768
	}
	if o.PingPeriod <= 0 {
		o.PingPeriod = 54 * time.Second
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 5 * time.Second
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = 32
	}
	if o.RateInterval <= 0 {
		o.RateInterval = time.Second
	}
	return o
}

type SignalWSController struct {
	Orch *orch.Orchestrator

	opts     Options
	limiter  *RateLimiter
	validate *validator.Validate
}

func NewSignalWSController(o *orch.Orchestrator, opts Options) *SignalWSController {
	opts = opts.withDefaults()
	return &SignalWSController{
		Orch:     o,
		opts:     opts,
		limiter:  NewRateLimiter(opts.RateLimit, opts.RateInterval),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// WsSignalConn is the registry-facing side of a websocket. Frames queue in
// send and are written by writePump; TrySend never blocks.
type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

// Close stops accepting frames; writePump flushes what is queued, sends a
// close frame and closes the socket.
func (c *WsSignalConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// wsSession is the per-connection state of one dispatch loop.
type wsSession struct {
	user   domain.UserID
	conn   *WsSignalConn
	handle *app.Connection
	// callRoom is fixed for connections opened on the call endpoint.
	callRoom domain.RoomID
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleSignal upgrades an authenticated request and runs its dispatch loop
// until the connection goes away.
func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context, uid domain.UserID) {
	s, ok := ctl.open(ctx, c, uid)
	if !ok {
		return
	}
	defer ctl.close(s)
	ctl.readPump(s)
}

// HandleCall is HandleSignal bound to one call room: the user joins it on
// connect and ends it when the connection goes away.
func (ctl *SignalWSController) HandleCall(ctx context.Context, c *gin.Context, uid domain.UserID, room domain.RoomID) {
	s, ok := ctl.open(ctx, c, uid)
	if !ok {
		return
	}
	defer ctl.close(s)

	if _, err := ctl.Orch.JoinCall(room, uid); err != nil {
		log.Info().Err(err).Str("module", "signal").Str("user", uid.String()).Str("room", string(room)).Msg("call join refused")
		ctl.sendError(s, err.Error())
		return
	}
	s.callRoom = room
	defer func() {
		// a reconnect on the call endpoint keeps the call going
		if ctl.Orch.Superseded(s.handle) {
			log.Info().Str("module", "signal").Str("user", uid.String()).Str("room", string(room)).Msg("call connection superseded, call kept")
			return
		}
		if err := ctl.Orch.EndCall(room, uid); err != nil {
			log.Warn().Err(err).Str("module", "signal").Str("room", string(room)).Msg("end call on disconnect")
		}
	}()
	ctl.readPump(s)
}

// Reject upgrades and immediately closes with a policy-violation status.
func (ctl *SignalWSController) Reject(c *gin.Context, reason string) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	defer ws.Close()
	msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason)
	if err := ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(ctl.opts.WriteTimeout)); err != nil {
		log.Debug().Err(err).Str("module", "signal").Msg("policy close")
	}
}

func (ctl *SignalWSController) open(ctx context.Context, c *gin.Context, uid domain.UserID) (*wsSession, bool) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return nil, false
	}
	log.Info().Str("module", "signal").Str("user", uid.String()).Msg("new WS connection")

	conn := &WsSignalConn{
		conn: ws,
		send: make(chan core.Frame, ctl.opts.SendBuffer),
	}
	go ctl.writePump(ctx, conn)

	return &wsSession{
		user:   uid,
		conn:   conn,
		handle: ctl.Orch.Connect(uid, conn),
	}, true
}

func (ctl *SignalWSController) close(s *wsSession) {
	s.conn.Close()
	ctl.Orch.OnDisconnect(s.handle)
	ctl.limiter.Forget(s.user)
	log.Info().Str("module", "signal").Str("user", s.user.String()).Msg("WS connection closed")
}
