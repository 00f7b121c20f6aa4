package app

import (
	"testing"

	"github.com/dkeye/Consult/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestRoomManager_Join_Notifies_Others(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	rooms := NewRoomManager(reg)
	a, b := connect(reg, 1), connect(reg, 2)

	// When two users join the same room
	req.True(rooms.Join("r1", 1))
	req.True(rooms.Join("r1", 2))

	// Then only the earlier member is told about the newcomer
	req.Equal(1, a.count(t, domain.OutUserJoined))
	req.Equal(0, b.count(t, domain.OutUserJoined))

	var data domain.MembershipData
	a.last(t, domain.OutUserJoined, &data)
	req.Equal(domain.UserID(2), data.UserID)
	req.Equal(domain.RoomID("r1"), data.RoomID)
	req.Equal([]domain.UserID{1, 2}, rooms.Members("r1"))
}

func TestRoomManager_Rejoin_Is_Silent(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	rooms := NewRoomManager(reg)
	a := connect(reg, 1)
	connect(reg, 2)

	rooms.Join("r1", 1)
	rooms.Join("r1", 2)

	// When a member joins again
	req.False(rooms.Join("r1", 2))

	// Then nobody hears about it twice
	req.Equal(1, a.count(t, domain.OutUserJoined))
	req.Len(rooms.Members("r1"), 2)
}

func TestRoomManager_Leave_Last_Member_Deletes_Room(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	rooms := NewRoomManager(reg)
	a := connect(reg, 1)
	connect(reg, 2)

	var emptied []domain.RoomID
	rooms.OnEmpty(func(id domain.RoomID) { emptied = append(emptied, id) })

	rooms.Join("r1", 1)
	rooms.Join("r1", 2)

	// When members leave one by one
	req.True(rooms.Leave("r1", 2))
	req.Equal(1, a.count(t, domain.OutUserLeft))
	req.Empty(emptied)

	req.True(rooms.Leave("r1", 1))

	// Then the room is gone and the hook fired once
	req.Equal(0, rooms.Count())
	_, ok := rooms.Info("r1")
	req.False(ok)
	req.Equal([]domain.RoomID{"r1"}, emptied)
	req.Empty(rooms.RoomsOf(1))

	// And leaving again is a no-op
	req.False(rooms.Leave("r1", 1))
}

func TestRoomManager_Broadcast_Excludes_Sender(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	rooms := NewRoomManager(reg)
	a, b, c := connect(reg, 1), connect(reg, 2), connect(reg, 3)
	for _, uid := range []domain.UserID{1, 2, 3} {
		rooms.Join("r1", uid)
	}

	sent := rooms.Broadcast("r1", domain.NewEnvelope(domain.OutPong, domain.PongData{}), 2)

	req.Equal(2, sent)
	req.Equal(1, a.count(t, domain.OutPong))
	req.Equal(0, b.count(t, domain.OutPong))
	req.Equal(1, c.count(t, domain.OutPong))
}

func TestRoomManager_Broadcast_Unknown_Room(t *testing.T) {
	req := require.New(t)
	rooms := NewRoomManager(NewRegistry())

	req.Equal(0, rooms.Broadcast("nope", domain.NewEnvelope(domain.OutPong, domain.PongData{})))
}

func TestRoomManager_Broadcast_Prunes_Unreachable(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	rooms := NewRoomManager(reg)
	a := connect(reg, 1)
	b := connect(reg, 2)
	rooms.Join("r1", 1)
	rooms.Join("r1", 2)
	a.reset()

	// Given one member whose channel refuses frames
	b.setFail(true)

	// When broadcasting
	sent := rooms.Broadcast("r1", domain.NewEnvelope(domain.OutPong, domain.PongData{}))

	// Then the healthy member got it and the broken one was silently removed
	req.Equal(1, sent)
	req.Equal([]domain.UserID{1}, rooms.Members("r1"))
	req.False(rooms.IsMember("r1", 2))
	req.Equal(0, a.count(t, domain.OutUserLeft))
}

func TestRoomManager_Prune_Last_Member_Fires_Hook(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	rooms := NewRoomManager(reg)
	a := connect(reg, 1)
	rooms.Join("r1", 1)

	fired := 0
	rooms.OnEmpty(func(domain.RoomID) { fired++ })

	a.setFail(true)
	rooms.Broadcast("r1", domain.NewEnvelope(domain.OutPong, domain.PongData{}))

	req.Equal(1, fired)
	req.Equal(0, rooms.Count())
}

func TestRoomManager_RoomsOf(t *testing.T) {
	req := require.New(t)
	rooms := NewRoomManager(NewRegistry())

	rooms.Join("b", 1)
	rooms.Join("a", 1)
	rooms.Join("a", 2)

	req.Equal([]domain.RoomID{"a", "b"}, rooms.RoomsOf(1))
	req.Equal([]domain.RoomID{"a"}, rooms.RoomsOf(2))
	req.Equal([]domain.RoomID{"a", "b"}, rooms.IDs())
}
