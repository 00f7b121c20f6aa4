package app

import (
	"slices"
	"sync"
	"time"

	"github.com/dkeye/Consult/internal/domain"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

const (
	defaultEndedRetention = 1024
	defaultJoinURLPrefix  = "/video-call/"
)

type CallOptions struct {
	// JoinURLPrefix is prepended to the room id in video_call_created.
	JoinURLPrefix string
	// ICEServers are handed to participants on join.
	ICEServers []webrtc.ICEServer
	// EndedRetention bounds how many ended room ids are remembered so that a
	// repeated End stays a no-op.
	EndedRetention int
}

// CallManager coordinates call sessions on top of the room manager.
type CallManager struct {
	conns *Registry
	rooms *RoomManager
	opts  CallOptions

	mu         sync.Mutex
	sessions   map[domain.RoomID]*domain.CallSession
	ended      map[domain.RoomID]struct{}
	endedOrder []domain.RoomID
}

func NewCallManager(conns *Registry, rooms *RoomManager, opts CallOptions) *CallManager {
	if opts.EndedRetention <= 0 {
		opts.EndedRetention = defaultEndedRetention
	}
	if opts.JoinURLPrefix == "" {
		opts.JoinURLPrefix = defaultJoinURLPrefix
	}
	m := &CallManager{
		conns:    conns,
		rooms:    rooms,
		opts:     opts,
		sessions: make(map[domain.RoomID]*domain.CallSession),
		ended:    make(map[domain.RoomID]struct{}),
	}
	rooms.OnEmpty(m.onRoomEmpty)
	return m
}

// CreateSession records a waiting call for the two participants and notifies
// each of them directly.
func (m *CallManager) CreateSession(ref domain.AppointmentRef, a, b domain.UserID) domain.RoomID {
	participants := lo.Uniq([]domain.UserID{a, b})

	m.mu.Lock()
	id := domain.NewCallRoomID(ref)
	for m.known(id) {
		id = domain.NewCallRoomID(ref)
	}
	m.sessions[id] = &domain.CallSession{
		RoomID:       id,
		Appointment:  ref,
		Participants: participants,
		Status:       domain.CallWaiting,
		CreatedAt:    time.Now().UTC(),
	}
	m.mu.Unlock()

	log.Info().Str("module", "app.calls").Str("room", string(id)).Str("appointment", string(ref)).Msg("call session created")
	for _, uid := range participants {
		m.conns.Send(uid, domain.NewEnvelope(domain.OutVideoCallCreated, domain.VideoCallCreatedData{
			RoomID:        id,
			AppointmentID: ref,
			JoinURL:       m.JoinURL(id),
		}))
	}
	return id
}

func (m *CallManager) JoinURL(id domain.RoomID) string {
	return m.opts.JoinURLPrefix + string(id)
}

// Join admits an authorized participant. A user already in another call
// room leaves it first.
func (m *CallManager) Join(id domain.RoomID, uid domain.UserID) (domain.CallSession, error) {
	m.mu.Lock()
	sess, err := m.lookupLocked(id)
	if err == nil && !sess.Authorized(uid) {
		err = domain.ErrUnauthorized
	}
	m.mu.Unlock()
	if err != nil {
		log.Info().Err(err).Str("module", "app.calls").Str("room", string(id)).Str("user", uid.String()).Msg("join rejected")
		return domain.CallSession{}, err
	}

	for _, other := range m.rooms.RoomsOf(uid) {
		if other != id && m.IsCall(other) {
			log.Info().Str("module", "app.calls").Str("from_room", string(other)).Str("room", string(id)).Str("user", uid.String()).Msg("leaving previous call")
			m.rooms.Leave(other, uid)
		}
	}

	m.rooms.Join(id, uid)

	m.mu.Lock()
	sess, err = m.lookupLocked(id)
	if err != nil {
		// ended while we were joining
		m.mu.Unlock()
		m.rooms.Leave(id, uid)
		return domain.CallSession{}, err
	}
	if sess.Activate() {
		log.Info().Str("module", "app.calls").Str("room", string(id)).Msg("call active")
	}
	snap := sess.Clone()
	m.mu.Unlock()

	m.conns.Send(uid, domain.NewEnvelope(domain.OutJoinedVideoCall, domain.JoinedVideoCallData{
		RoomID:       id,
		Participants: m.rooms.Members(id),
		RoomData:     snap,
		ICEServers:   m.opts.ICEServers,
	}))
	return snap, nil
}

// RelaySignal forwards a signaling payload to every other member of the
// room without looking inside it.
func (m *CallManager) RelaySignal(sig domain.Signal) error {
	m.mu.Lock()
	sess, err := m.lookupLocked(sig.RoomID)
	if err == nil && !sess.Authorized(sig.From) {
		err = domain.ErrUnauthorized
	}
	m.mu.Unlock()
	if err != nil {
		return err
	}

	sent := m.rooms.Broadcast(sig.RoomID, domain.NewEnvelope(domain.OutVideoSignal, domain.VideoSignalData{
		SignalType: sig.Type,
		FromUser:   sig.From,
		SignalData: sig.Data,
	}), sig.From)
	log.Debug().Str("module", "app.calls").Str("room", string(sig.RoomID)).Str("signal", sig.Type).Int("sent_to", sent).Msg("signal relayed")
	return nil
}

// End terminates the call: every member gets video_call_ended first, then
// each member is removed from the room. Ending an ended call is a no-op.
func (m *CallManager) End(id domain.RoomID, by domain.UserID) error {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	if !ok {
		_, wasEnded := m.ended[id]
		m.mu.Unlock()
		if wasEnded {
			return nil
		}
		return domain.ErrNotFound
	}
	if by != domain.SystemUser && !sess.Authorized(by) {
		m.mu.Unlock()
		return domain.ErrUnauthorized
	}
	now := time.Now().UTC()
	sess.End(by, now)
	m.retireLocked(id)
	m.mu.Unlock()

	log.Info().Str("module", "app.calls").Str("room", string(id)).Str("by", by.String()).Msg("call ended")
	m.rooms.Broadcast(id, domain.NewEnvelope(domain.OutVideoCallEnded, domain.VideoCallEndedData{
		RoomID:    id,
		EndedBy:   by,
		Timestamp: now,
	}))
	for _, uid := range m.rooms.Members(id) {
		m.rooms.Leave(id, uid)
	}
	return nil
}

// Get returns a snapshot of a live session.
func (m *CallManager) Get(id domain.RoomID) (domain.CallSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok {
		return domain.CallSession{}, false
	}
	return sess.Clone(), true
}

func (m *CallManager) IsCall(id domain.RoomID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[id]
	return ok
}

// IDs lists live call sessions.
func (m *CallManager) IDs() []domain.RoomID {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := lo.Keys(m.sessions)
	slices.Sort(ids)
	return ids
}

// EndAll ends every live call; used on shutdown.
func (m *CallManager) EndAll() {
	for _, id := range m.IDs() {
		_ = m.End(id, domain.SystemUser)
	}
}

// onRoomEmpty drops the session of a room whose last member left.
func (m *CallManager) onRoomEmpty(id domain.RoomID) {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	if ok {
		sess.End(domain.SystemUser, time.Now().UTC())
		m.retireLocked(id)
	}
	m.mu.Unlock()
	if ok {
		log.Info().Str("module", "app.calls").Str("room", string(id)).Msg("call room empty, session dropped")
	}
}

func (m *CallManager) lookupLocked(id domain.RoomID) (*domain.CallSession, error) {
	sess, ok := m.sessions[id]
	if !ok {
		if _, wasEnded := m.ended[id]; wasEnded {
			return nil, domain.ErrSessionEnded
		}
		return nil, domain.ErrNotFound
	}
	if sess.Status == domain.CallEnded {
		return nil, domain.ErrSessionEnded
	}
	return sess, nil
}

func (m *CallManager) known(id domain.RoomID) bool {
	_, live := m.sessions[id]
	_, ended := m.ended[id]
	return live || ended
}

// retireLocked moves a session to the bounded ended set.
func (m *CallManager) retireLocked(id domain.RoomID) {
	delete(m.sessions, id)
	if _, ok := m.ended[id]; ok {
		return
	}
	m.ended[id] = struct{}{}
	m.endedOrder = append(m.endedOrder, id)
	if len(m.endedOrder) > m.opts.EndedRetention {
		evict := m.endedOrder[0]
		m.endedOrder = m.endedOrder[1:]
		delete(m.ended, evict)
	}
}
