package orch

import (
	"github.com/dkeye/Consult/internal/app"
	"github.com/dkeye/Consult/internal/core"
	"github.com/dkeye/Consult/internal/domain"
	"github.com/rs/zerolog/log"
)

// Orchestrator is the single real-time coordinator of the process. It is
// constructed once and handed to every adapter that needs it.
type Orchestrator struct {
	Registry *app.Registry
	Rooms    *app.RoomManager
	Calls    *app.CallManager
	Chat     *app.Messenger
}

func New(opts app.CallOptions) *Orchestrator {
	reg := app.NewRegistry()
	rooms := app.NewRoomManager(reg)
	return &Orchestrator{
		Registry: reg,
		Rooms:    rooms,
		Calls:    app.NewCallManager(reg, rooms, opts),
		Chat:     app.NewMessenger(reg),
	}
}

// Connect registers an authenticated user's channel, superseding any older one.
func (o *Orchestrator) Connect(uid domain.UserID, sig core.SignalConnection) *app.Connection {
	return o.Registry.Register(uid, sig)
}

// OnDisconnect releases conn and, unless a newer connection for the same
// user took over, removes the user from every room it was in.
func (o *Orchestrator) OnDisconnect(conn *app.Connection) {
	o.Registry.Release(conn)
	if o.Superseded(conn) {
		log.Info().Str("module", "orch").Str("user", conn.UserID.String()).Msg("connection superseded, keeping rooms")
		return
	}
	for _, id := range o.Rooms.RoomsOf(conn.UserID) {
		o.Rooms.Leave(id, conn.UserID)
	}
}

// Superseded reports whether a newer connection for the same user has
// replaced conn.
func (o *Orchestrator) Superseded(conn *app.Connection) bool {
	cur, ok := o.Registry.Get(conn.UserID)
	return ok && cur != conn
}

// PushNotification delivers an out-of-band event through an existing
// connection, if there is one.
func (o *Orchestrator) PushNotification(uid domain.UserID, payload any) bool {
	return o.Registry.Send(uid, domain.NewEnvelope(domain.OutNotification, payload))
}

func (o *Orchestrator) ActiveConnections() int { return o.Registry.ActiveCount() }

func (o *Orchestrator) ActiveRooms() int { return o.Rooms.Count() }

// RoomIDs lists the rooms backing live call sessions.
func (o *Orchestrator) RoomIDs() []string {
	ids := o.Calls.IDs()
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, string(id))
	}
	return out
}

// Shutdown ends every call and closes every connection.
func (o *Orchestrator) Shutdown() {
	o.Calls.EndAll()
	o.Registry.CloseAll()
	log.Info().Str("module", "orch").Msg("real-time layer stopped")
}
