package app

import (
	"testing"

	"github.com/dkeye/Consult/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestMessenger_SendDirect_Delivered(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	chat := NewMessenger(reg)
	sender, receiver := connect(reg, 1), connect(reg, 2)
	appt := int64(100)

	// When an online user is messaged
	ok := chat.SendDirect(DirectMessage{SenderID: 1, ReceiverID: 2, Content: "hi", AppointmentID: &appt})

	// Then the receiver gets the message with the default type
	req.True(ok)
	var msg domain.ChatMessageData
	receiver.last(t, domain.OutChatMessage, &msg)
	req.Equal(domain.UserID(1), msg.SenderID)
	req.Equal("hi", msg.Content)
	req.Equal("text", msg.MessageType)
	req.Equal(&appt, msg.AppointmentID)

	// And the sender gets a positive receipt
	var receipt domain.MessageSentData
	sender.last(t, domain.OutMessageSent, &receipt)
	req.True(receipt.Delivered)
	req.Equal(domain.UserID(2), receipt.ReceiverID)
}

func TestMessenger_SendDirect_Offline_Receiver(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	chat := NewMessenger(reg)
	sender := connect(reg, 1)

	ok := chat.SendDirect(DirectMessage{SenderID: 1, ReceiverID: 2, Content: "hi", MessageType: "file"})

	req.False(ok)
	var receipt domain.MessageSentData
	sender.last(t, domain.OutMessageSent, &receipt)
	req.False(receipt.Delivered)
	req.Equal(0, sender.count(t, domain.OutChatMessage))
}

func TestMessenger_SendTyping(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	chat := NewMessenger(reg)
	sender, receiver := connect(reg, 1), connect(reg, 2)

	chat.SendTyping(1, 2, true)
	chat.SendTyping(1, 3, true)

	var ind domain.TypingIndicatorData
	receiver.last(t, domain.OutTypingIndicator, &ind)
	req.Equal(domain.UserID(1), ind.SenderID)
	req.True(ind.IsTyping)
	req.Empty(sender.types(t))
}
