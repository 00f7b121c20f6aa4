package app

import (
	"testing"

	"github.com/dkeye/Consult/internal/core/mock"
	"github.com/dkeye/Consult/internal/domain"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestRegistry_Register_Sends_Connection_Established(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	c := &fakeConn{}

	// When a user registers
	conn := reg.Register(7, c)

	// Then the registry knows them and greeted them
	req.Equal(domain.UserID(7), conn.UserID)
	req.NotEmpty(conn.ID)
	req.Equal(1, reg.ActiveCount())
	req.Equal([]domain.EnvelopeType{domain.OutConnectionEstablished}, c.types(t))

	var data domain.ConnectionEstablishedData
	c.last(t, domain.OutConnectionEstablished, &data)
	req.Equal(domain.UserID(7), data.UserID)
}

func TestRegistry_Register_Supersedes_Previous(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	reg := NewRegistry()

	first := mock.NewMockSignalConnection(ctrl)
	first.EXPECT().TrySend(gomock.Any()).Return(nil).Times(1)
	first.EXPECT().Close().Times(1)

	// Given a connected user
	c1 := reg.Register(7, first)

	// When the same user connects again
	second := &fakeConn{}
	c2 := reg.Register(7, second)

	// Then the first channel was closed and the second is current
	got, ok := reg.Get(7)
	req.True(ok)
	req.Same(c2, got)
	req.Equal(1, reg.ActiveCount())

	// And the stale handle cannot evict its replacement
	req.False(reg.Release(c1))
	got, ok = reg.Get(7)
	req.True(ok)
	req.Same(c2, got)

	// And sends reach the new channel only
	req.True(reg.Send(7, domain.NewEnvelope(domain.OutPong, domain.PongData{})))
	req.Equal(1, second.count(t, domain.OutPong))
}

func TestRegistry_Send_Unknown_User(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()

	req.False(reg.Send(42, domain.NewEnvelope(domain.OutPong, domain.PongData{})))
}

func TestRegistry_Send_Failure_Drops_Mapping(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	c := connect(reg, 3)

	// Given a channel that refuses frames
	c.setFail(true)

	// When sending to it
	ok := reg.Send(3, domain.NewEnvelope(domain.OutPong, domain.PongData{}))

	// Then delivery fails and the user is no longer registered
	req.False(ok)
	_, found := reg.Get(3)
	req.False(found)
	req.Equal(1, c.closed)
}

func TestRegistry_Unregister_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	connect(reg, 3)

	reg.Unregister(3)
	reg.Unregister(3)
	reg.Unregister(99)

	req.Equal(0, reg.ActiveCount())
}

func TestRegistry_CloseAll(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	a, b := connect(reg, 1), connect(reg, 2)

	reg.CloseAll()

	req.Equal(0, reg.ActiveCount())
	req.Equal(1, a.closed)
	req.Equal(1, b.closed)
}
