package app

import (
	"time"

	"github.com/dkeye/Consult/internal/domain"
	"github.com/rs/zerolog/log"
)

const defaultMessageType = "text"

// Messenger delivers direct messages and typing indicators. It never
// persists anything; an offline receiver is a normal outcome.
type Messenger struct {
	conns *Registry
}

func NewMessenger(conns *Registry) *Messenger {
	return &Messenger{conns: conns}
}

type DirectMessage struct {
	SenderID      domain.UserID
	ReceiverID    domain.UserID
	Content       string
	MessageType   string
	AppointmentID *int64
}

// SendDirect tries to deliver msg and always sends the sender a receipt
// saying whether the receiver was reachable.
func (m *Messenger) SendDirect(msg DirectMessage) bool {
	if msg.MessageType == "" {
		msg.MessageType = defaultMessageType
	}
	now := time.Now().UTC()
	delivered := m.conns.Send(msg.ReceiverID, domain.NewEnvelope(domain.OutChatMessage, domain.ChatMessageData{
		SenderID:      msg.SenderID,
		ReceiverID:    msg.ReceiverID,
		Content:       msg.Content,
		MessageType:   msg.MessageType,
		AppointmentID: msg.AppointmentID,
		Timestamp:     now,
	}))

	m.conns.Send(msg.SenderID, domain.NewEnvelope(domain.OutMessageSent, domain.MessageSentData{
		Delivered:  delivered,
		ReceiverID: msg.ReceiverID,
		Timestamp:  now,
	}))
	log.Debug().Str("module", "app.chat").Str("from", msg.SenderID.String()).Str("to", msg.ReceiverID.String()).Bool("delivered", delivered).Msg("direct message")
	return delivered
}

// SendTyping is fire-and-forget.
func (m *Messenger) SendTyping(sender, receiver domain.UserID, isTyping bool) {
	m.conns.Send(receiver, domain.NewEnvelope(domain.OutTypingIndicator, domain.TypingIndicatorData{
		SenderID:  sender,
		IsTyping:  isTyping,
		Timestamp: time.Now().UTC(),
	}))
}
