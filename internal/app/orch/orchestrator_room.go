package orch

import (
	"github.com/dkeye/Consult/internal/app"
	"github.com/dkeye/Consult/internal/domain"
)

func (o *Orchestrator) CreateSession(ref domain.AppointmentRef, a, b domain.UserID) domain.RoomID {
	return o.Calls.CreateSession(ref, a, b)
}

func (o *Orchestrator) JoinCall(id domain.RoomID, uid domain.UserID) (domain.CallSession, error) {
	return o.Calls.Join(id, uid)
}

func (o *Orchestrator) RelaySignal(sig domain.Signal) error {
	return o.Calls.RelaySignal(sig)
}

func (o *Orchestrator) EndCall(id domain.RoomID, uid domain.UserID) error {
	return o.Calls.End(id, uid)
}

func (o *Orchestrator) SendDirect(msg app.DirectMessage) bool {
	return o.Chat.SendDirect(msg)
}

func (o *Orchestrator) SendTyping(sender, receiver domain.UserID, isTyping bool) {
	o.Chat.SendTyping(sender, receiver, isTyping)
}

func (o *Orchestrator) JoinURL(id domain.RoomID) string {
	return o.Calls.JoinURL(id)
}
