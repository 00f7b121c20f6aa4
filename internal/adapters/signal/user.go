package signal

import (
	"github.com/dkeye/Consult/internal/app"
	"github.com/dkeye/Consult/internal/domain"
)

func (ctl *SignalWSController) handleChat(s *wsSession, p domain.ChatMessagePayload) {
	ctl.Orch.SendDirect(app.DirectMessage{
		SenderID:      s.user,
		ReceiverID:    p.ReceiverID,
		Content:       p.Content,
		MessageType:   p.MessageType,
		AppointmentID: p.AppointmentID,
	})
}

func (ctl *SignalWSController) handleTyping(s *wsSession, p domain.TypingPayload) {
	ctl.Orch.SendTyping(s.user, p.ReceiverID, p.IsTyping)
}
