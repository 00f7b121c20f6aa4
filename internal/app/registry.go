package app

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/dkeye/Consult/internal/core"
	"github.com/dkeye/Consult/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Connection is one live duplex channel for one user.
type Connection struct {
	ID          string
	UserID      domain.UserID
	Signal      core.SignalConnection
	ConnectedAt time.Time
}

// Registry maps user identity to its single live connection.
type Registry struct {
	mu     sync.RWMutex
	byUser map[domain.UserID]*Connection
}

func NewRegistry() *Registry {
	return &Registry{byUser: make(map[domain.UserID]*Connection)}
}

// Encode turns an envelope into a wire frame.
func Encode(env domain.Envelope) (core.Frame, error) {
	return json.Marshal(env)
}

// Register stores sig as the user's channel, closing any prior one first.
func (r *Registry) Register(uid domain.UserID, sig core.SignalConnection) *Connection {
	now := time.Now().UTC()
	conn := &Connection{
		ID:          uuid.NewString(),
		UserID:      uid,
		Signal:      sig,
		ConnectedAt: now,
	}

	r.mu.Lock()
	prev := r.byUser[uid]
	r.byUser[uid] = conn
	total := len(r.byUser)
	r.mu.Unlock()

	if prev != nil {
		closeQuietly(prev.Signal)
		log.Info().Str("module", "app.connections").Str("user", uid.String()).Str("superseded", prev.ID).Msg("previous connection closed")
	}
	log.Info().Str("module", "app.connections").Str("user", uid.String()).Int("total", total).Msg("user connected")

	r.Send(uid, domain.NewEnvelope(domain.OutConnectionEstablished, domain.ConnectionEstablishedData{
		UserID:    uid,
		Timestamp: now,
	}))
	return conn
}

// Unregister drops whatever connection the user has. Idempotent.
func (r *Registry) Unregister(uid domain.UserID) {
	r.mu.Lock()
	_, ok := r.byUser[uid]
	delete(r.byUser, uid)
	total := len(r.byUser)
	r.mu.Unlock()
	if ok {
		log.Info().Str("module", "app.connections").Str("user", uid.String()).Int("total", total).Msg("user disconnected")
	}
}

// Release unregisters conn only if it is still the user's current connection,
// so a superseded connection cannot evict its replacement.
func (r *Registry) Release(conn *Connection) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.byUser[conn.UserID]
	if !ok || cur != conn {
		return false
	}
	delete(r.byUser, conn.UserID)
	log.Info().Str("module", "app.connections").Str("user", conn.UserID.String()).Int("total", len(r.byUser)).Msg("user disconnected")
	return true
}

func (r *Registry) Get(uid domain.UserID) (*Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byUser[uid]
	return c, ok
}

// Send delivers env to uid. It reports false when the user has no live
// channel or the channel refused the frame; the latter drops the mapping.
func (r *Registry) Send(uid domain.UserID, env domain.Envelope) bool {
	frame, err := Encode(env)
	if err != nil {
		log.Error().Err(err).Str("module", "app.connections").Str("type", string(env.Type)).Msg("encode envelope")
		return false
	}
	return r.SendFrame(uid, frame)
}

func (r *Registry) SendFrame(uid domain.UserID, frame core.Frame) bool {
	r.mu.RLock()
	conn, ok := r.byUser[uid]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if err := conn.Signal.TrySend(frame); err != nil {
		log.Warn().Err(err).Str("module", "app.connections").Str("user", uid.String()).Msg("send failed, dropping connection")
		if r.Release(conn) {
			closeQuietly(conn.Signal)
		}
		return false
	}
	return true
}

func (r *Registry) ActiveCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}

// CloseAll closes and forgets every connection.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	conns := r.byUser
	r.byUser = make(map[domain.UserID]*Connection)
	r.mu.Unlock()
	for _, c := range conns {
		closeQuietly(c.Signal)
	}
}

func closeQuietly(sig core.SignalConnection) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Warn().Str("module", "app.connections").Interface("panic", rec).Msg("close failed")
		}
	}()
	sig.Close()
}
