package domain

import (
	"encoding/json"
	"time"

	"github.com/pion/webrtc/v4"
)

type EnvelopeType string

// Inbound type tags.
const (
	InChatMessage   EnvelopeType = "chat_message"
	InTyping        EnvelopeType = "typing"
	InJoinVideoCall EnvelopeType = "join_video_call"
	InVideoSignal   EnvelopeType = "video_signal"
	InEndVideoCall  EnvelopeType = "end_video_call"
	InPing          EnvelopeType = "ping"
)

// Outbound type tags.
const (
	OutConnectionEstablished EnvelopeType = "connection_established"
	OutUserJoined            EnvelopeType = "user_joined"
	OutUserLeft              EnvelopeType = "user_left"
	OutChatMessage           EnvelopeType = "chat_message"
	OutMessageSent           EnvelopeType = "message_sent"
	OutTypingIndicator       EnvelopeType = "typing_indicator"
	OutVideoCallCreated      EnvelopeType = "video_call_created"
	OutJoinedVideoCall       EnvelopeType = "joined_video_call"
	OutVideoSignal           EnvelopeType = "video_signal"
	OutVideoCallEnded        EnvelopeType = "video_call_ended"
	OutVideoCallJoinResult   EnvelopeType = "video_call_join_result"
	OutVideoCallEndResult    EnvelopeType = "video_call_end_result"
	OutPong                  EnvelopeType = "pong"
	OutError                 EnvelopeType = "error"
	OutNotification          EnvelopeType = "notification"
)

// Envelope is an outbound unit of real-time communication.
type Envelope struct {
	Type      EnvelopeType `json:"type"`
	Data      any          `json:"data"`
	Timestamp time.Time    `json:"timestamp"`
}

func NewEnvelope(t EnvelopeType, data any) Envelope {
	return Envelope{Type: t, Data: data, Timestamp: time.Now().UTC()}
}

// InboundEnvelope is the raw form read off a connection; Data is decoded
// into one of the *Payload types below once Type is known.
type InboundEnvelope struct {
	Type EnvelopeType    `json:"type"`
	Data json.RawMessage `json:"data"`
}

type ChatMessagePayload struct {
	ReceiverID    UserID `json:"receiver_id" validate:"required,gt=0"`
	Content       string `json:"content" validate:"required"`
	MessageType   string `json:"message_type"`
	AppointmentID *int64 `json:"appointment_id,omitempty"`
}

type TypingPayload struct {
	ReceiverID UserID `json:"receiver_id" validate:"required,gt=0"`
	IsTyping   bool   `json:"is_typing"`
}

type RoomPayload struct {
	RoomID RoomID `json:"room_id" validate:"required"`
}

type VideoSignalPayload struct {
	SignalType string          `json:"signal_type" validate:"required"`
	RoomID     RoomID          `json:"room_id" validate:"required"`
	SignalData json.RawMessage `json:"signal_data"`
}

// Signal is a signaling message relayed opaquely between call members.
type Signal struct {
	Type   string
	RoomID RoomID
	From   UserID
	Data   json.RawMessage
}

type ConnectionEstablishedData struct {
	UserID    UserID    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

type MembershipData struct {
	RoomID    RoomID    `json:"room_id"`
	UserID    UserID    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

type ChatMessageData struct {
	SenderID      UserID    `json:"sender_id"`
	ReceiverID    UserID    `json:"receiver_id"`
	Content       string    `json:"content"`
	MessageType   string    `json:"message_type"`
	AppointmentID *int64    `json:"appointment_id"`
	Timestamp     time.Time `json:"timestamp"`
}

type MessageSentData struct {
	Delivered  bool      `json:"delivered"`
	ReceiverID UserID    `json:"receiver_id"`
	Timestamp  time.Time `json:"timestamp"`
}

type TypingIndicatorData struct {
	SenderID  UserID    `json:"sender_id"`
	IsTyping  bool      `json:"is_typing"`
	Timestamp time.Time `json:"timestamp"`
}

type VideoCallCreatedData struct {
	RoomID        RoomID         `json:"room_id"`
	AppointmentID AppointmentRef `json:"appointment_id"`
	JoinURL       string         `json:"join_url"`
}

type JoinedVideoCallData struct {
	RoomID       RoomID             `json:"room_id"`
	Participants []UserID           `json:"participants"`
	RoomData     CallSession        `json:"room_data"`
	ICEServers   []webrtc.ICEServer `json:"ice_servers,omitempty"`
}

type VideoSignalData struct {
	SignalType string          `json:"signal_type"`
	FromUser   UserID          `json:"from_user"`
	SignalData json.RawMessage `json:"signal_data"`
}

type VideoCallEndedData struct {
	RoomID    RoomID    `json:"room_id"`
	EndedBy   UserID    `json:"ended_by"`
	Timestamp time.Time `json:"timestamp"`
}

// ResultData reports the outcome of a join or end request.
type ResultData struct {
	Success bool   `json:"success"`
	RoomID  RoomID `json:"room_id,omitempty"`
	Error   string `json:"error,omitempty"`
}

type PongData struct {
	Timestamp time.Time `json:"timestamp"`
}

type ErrorData struct {
	Message string `json:"message"`
}
