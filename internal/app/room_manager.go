package app

import (
	"slices"
	"sync"
	"time"

	"github.com/dkeye/Consult/internal/core"
	"github.com/dkeye/Consult/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

type roomState struct {
	members   map[domain.UserID]struct{}
	createdAt time.Time
}

// RoomManager owns room membership. Sends always happen after the lock is
// released, on a snapshot taken under it.
type RoomManager struct {
	conns *Registry

	mu     sync.RWMutex
	rooms  map[domain.RoomID]*roomState
	byUser map[domain.UserID]map[domain.RoomID]struct{}

	hookMu  sync.RWMutex
	onEmpty []func(domain.RoomID)
}

func NewRoomManager(conns *Registry) *RoomManager {
	return &RoomManager{
		conns:  conns,
		rooms:  make(map[domain.RoomID]*roomState),
		byUser: make(map[domain.UserID]map[domain.RoomID]struct{}),
	}
}

// OnEmpty registers fn to run after a room is garbage collected.
func (m *RoomManager) OnEmpty(fn func(domain.RoomID)) {
	m.hookMu.Lock()
	m.onEmpty = append(m.onEmpty, fn)
	m.hookMu.Unlock()
}

// Join adds uid to the room, creating it if needed, and tells the other
// members. It reports false if uid was already a member; nothing is sent then.
func (m *RoomManager) Join(id domain.RoomID, uid domain.UserID) bool {
	m.mu.Lock()
	room, ok := m.rooms[id]
	if !ok {
		room = &roomState{members: make(map[domain.UserID]struct{}), createdAt: time.Now().UTC()}
		m.rooms[id] = room
	}
	if _, member := room.members[uid]; member {
		m.mu.Unlock()
		return false
	}
	room.members[uid] = struct{}{}
	m.index(uid, id)
	others := m.snapshotLocked(room, uid)
	m.mu.Unlock()

	log.Info().Str("module", "app.rooms").Str("room", string(id)).Str("user", uid.String()).Msg("user joined room")
	m.deliver(id, others, domain.NewEnvelope(domain.OutUserJoined, domain.MembershipData{
		RoomID:    id,
		UserID:    uid,
		Timestamp: time.Now().UTC(),
	}))
	return true
}

// Leave removes uid and tells the remaining members. The room is deleted in
// the same critical section when it becomes empty.
func (m *RoomManager) Leave(id domain.RoomID, uid domain.UserID) bool {
	m.mu.Lock()
	room, ok := m.rooms[id]
	if !ok {
		m.mu.Unlock()
		return false
	}
	if _, member := room.members[uid]; !member {
		m.mu.Unlock()
		return false
	}
	delete(room.members, uid)
	m.unindex(uid, id)
	empty := len(room.members) == 0
	if empty {
		delete(m.rooms, id)
	}
	remaining := m.snapshotLocked(room)
	m.mu.Unlock()

	log.Info().Str("module", "app.rooms").Str("room", string(id)).Str("user", uid.String()).Bool("room_closed", empty).Msg("user left room")
	if empty {
		m.fireEmpty(id)
		return true
	}
	m.deliver(id, remaining, domain.NewEnvelope(domain.OutUserLeft, domain.MembershipData{
		RoomID:    id,
		UserID:    uid,
		Timestamp: time.Now().UTC(),
	}))
	return true
}

// Broadcast sends env to every member except the excluded ones and returns
// how many deliveries succeeded. Members that could not be reached are pruned.
func (m *RoomManager) Broadcast(id domain.RoomID, env domain.Envelope, exclude ...domain.UserID) int {
	m.mu.RLock()
	room, ok := m.rooms[id]
	if !ok {
		m.mu.RUnlock()
		return 0
	}
	targets := m.snapshotLocked(room, exclude...)
	m.mu.RUnlock()
	return m.deliver(id, targets, env)
}

func (m *RoomManager) deliver(id domain.RoomID, targets []domain.UserID, env domain.Envelope) int {
	if len(targets) == 0 {
		return 0
	}
	frame, err := Encode(env)
	if err != nil {
		log.Error().Err(err).Str("module", "app.rooms").Str("type", string(env.Type)).Msg("encode envelope")
		return 0
	}
	sent, failed := m.sendAll(targets, frame)
	if len(failed) > 0 {
		m.prune(id, failed)
	}
	log.Debug().Str("module", "app.rooms").Str("room", string(id)).Str("type", string(env.Type)).Int("sent_to", sent).Int("dropped", len(failed)).Msg("broadcast result")
	return sent
}

func (m *RoomManager) sendAll(targets []domain.UserID, frame core.Frame) (int, []domain.UserID) {
	sent := 0
	var failed []domain.UserID
	for _, uid := range targets {
		if m.conns.SendFrame(uid, frame) {
			sent++
			continue
		}
		failed = append(failed, uid)
	}
	return sent, failed
}

// prune removes unreachable members without announcing them.
func (m *RoomManager) prune(id domain.RoomID, uids []domain.UserID) {
	m.mu.Lock()
	room, ok := m.rooms[id]
	if !ok {
		m.mu.Unlock()
		return
	}
	for _, uid := range uids {
		if _, member := room.members[uid]; member {
			delete(room.members, uid)
			m.unindex(uid, id)
		}
	}
	empty := len(room.members) == 0
	if empty {
		delete(m.rooms, id)
	}
	m.mu.Unlock()

	log.Info().Str("module", "app.rooms").Str("room", string(id)).Int("pruned", len(uids)).Bool("room_closed", empty).Msg("pruned unreachable members")
	if empty {
		m.fireEmpty(id)
	}
}

func (m *RoomManager) fireEmpty(id domain.RoomID) {
	m.hookMu.RLock()
	hooks := slices.Clone(m.onEmpty)
	m.hookMu.RUnlock()
	for _, fn := range hooks {
		fn(id)
	}
}

// Members returns a sorted snapshot of the room's members.
func (m *RoomManager) Members(id domain.RoomID) []domain.UserID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	room, ok := m.rooms[id]
	if !ok {
		return nil
	}
	return m.snapshotLocked(room)
}

func (m *RoomManager) IsMember(id domain.RoomID, uid domain.UserID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.byUser[uid][id]
	return ok
}

// RoomsOf lists the rooms uid currently belongs to.
func (m *RoomManager) RoomsOf(uid domain.UserID) []domain.RoomID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := lo.Keys(m.byUser[uid])
	slices.Sort(ids)
	return ids
}

func (m *RoomManager) Info(id domain.RoomID) (domain.Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	room, ok := m.rooms[id]
	if !ok {
		return domain.Room{}, false
	}
	return domain.Room{ID: id, Members: m.snapshotLocked(room), CreatedAt: room.createdAt}, true
}

func (m *RoomManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

func (m *RoomManager) IDs() []domain.RoomID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := lo.Keys(m.rooms)
	slices.Sort(ids)
	return ids
}

func (m *RoomManager) snapshotLocked(room *roomState, exclude ...domain.UserID) []domain.UserID {
	out := lo.Without(lo.Keys(room.members), exclude...)
	slices.Sort(out)
	return out
}

func (m *RoomManager) index(uid domain.UserID, id domain.RoomID) {
	set, ok := m.byUser[uid]
	if !ok {
		set = make(map[domain.RoomID]struct{})
		m.byUser[uid] = set
	}
	set[id] = struct{}{}
}

func (m *RoomManager) unindex(uid domain.UserID, id domain.RoomID) {
	if set, ok := m.byUser[uid]; ok {
		delete(set, id)
		if len(set) == 0 {
			delete(m.byUser, uid)
		}
	}
}
