package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type CallStatus string

const (
	CallWaiting CallStatus = "waiting"
	CallActive  CallStatus = "active"
	CallEnded   CallStatus = "ended"
)

// AppointmentRef points to the appointment a call was created for.
type AppointmentRef string

// Slug is the part of the reference used inside room identifiers:
// the segment after the last '-', restricted to letters and digits.
func (a AppointmentRef) Slug() string {
	s := string(a)
	if i := strings.LastIndex(s, "-"); i >= 0 {
		s = s[i+1:]
	}
	s = strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return r
		}
		return -1
	}, s)
	if s == "" {
		return "call"
	}
	return s
}

// NewCallRoomID builds video_<slug>_<8 hex chars>.
func NewCallRoomID(ref AppointmentRef) RoomID {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return RoomID(fmt.Sprintf("video_%s_%s", ref.Slug(), token))
}

// CallSession is the call-specific metadata of a room.
// Participants is fixed at creation; Status only moves forward.
type CallSession struct {
	RoomID       RoomID         `json:"room_id"`
	Appointment  AppointmentRef `json:"appointment_id"`
	Participants []UserID       `json:"participants"`
	Status       CallStatus     `json:"status"`
	CreatedAt    time.Time      `json:"created_at"`
	EndedAt      *time.Time     `json:"ended_at,omitempty"`
	EndedBy      *UserID        `json:"ended_by,omitempty"`
}

func (s *CallSession) Authorized(u UserID) bool {
	return lo.Contains(s.Participants, u)
}

// Activate moves waiting to active; it reports whether the status changed.
func (s *CallSession) Activate() bool {
	if s.Status != CallWaiting {
		return false
	}
	s.Status = CallActive
	return true
}

// End marks the session ended; it reports false if it already was.
func (s *CallSession) End(by UserID, at time.Time) bool {
	if s.Status == CallEnded {
		return false
	}
	s.Status = CallEnded
	s.EndedAt = &at
	s.EndedBy = &by
	return true
}

// Clone returns a copy safe to hand out of the manager's lock.
func (s *CallSession) Clone() CallSession {
	c := *s
	c.Participants = append([]UserID(nil), s.Participants...)
	if s.EndedAt != nil {
		at := *s.EndedAt
		c.EndedAt = &at
	}
	if s.EndedBy != nil {
		by := *s.EndedBy
		c.EndedBy = &by
	}
	return c
}
