package app

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/dkeye/Consult/internal/core"
	"github.com/dkeye/Consult/internal/domain"
	"github.com/stretchr/testify/require"
)

var errFull = errors.New("full")

// fakeConn records every frame it accepts.
type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
	fail   bool
	closed int
}

func (f *fakeConn) TrySend(frame core.Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errFull
	}
	f.frames = append(f.frames, frame)
	return nil
}

func (f *fakeConn) Close() {
	f.mu.Lock()
	f.closed++
	f.mu.Unlock()
}

func (f *fakeConn) setFail(v bool) {
	f.mu.Lock()
	f.fail = v
	f.mu.Unlock()
}

type received struct {
	Type domain.EnvelopeType `json:"type"`
	Data json.RawMessage     `json:"data"`
}

func (f *fakeConn) envelopes(t *testing.T) []received {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]received, 0, len(f.frames))
	for _, fr := range f.frames {
		var r received
		require.NoError(t, json.Unmarshal(fr, &r))
		out = append(out, r)
	}
	return out
}

func (f *fakeConn) types(t *testing.T) []domain.EnvelopeType {
	t.Helper()
	var out []domain.EnvelopeType
	for _, r := range f.envelopes(t) {
		out = append(out, r.Type)
	}
	return out
}

// count returns how many envelopes of type et were received.
func (f *fakeConn) count(t *testing.T, et domain.EnvelopeType) int {
	t.Helper()
	n := 0
	for _, typ := range f.types(t) {
		if typ == et {
			n++
		}
	}
	return n
}

// last decodes the most recent envelope of type et into v.
func (f *fakeConn) last(t *testing.T, et domain.EnvelopeType, v any) {
	t.Helper()
	envs := f.envelopes(t)
	for i := len(envs) - 1; i >= 0; i-- {
		if envs[i].Type == et {
			require.NoError(t, json.Unmarshal(envs[i].Data, v))
			return
		}
	}
	t.Fatalf("no %s envelope received", et)
}

func (f *fakeConn) reset() {
	f.mu.Lock()
	f.frames = nil
	f.mu.Unlock()
}

// connect registers a fresh fakeConn for uid and clears the greeting.
func connect(r *Registry, uid domain.UserID) *fakeConn {
	c := &fakeConn{}
	r.Register(uid, c)
	c.reset()
	return c
}
