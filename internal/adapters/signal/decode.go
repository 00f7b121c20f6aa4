package signal

import (
	"encoding/json"
	"fmt"

	"github.com/dkeye/Consult/internal/domain"
	"github.com/go-playground/validator/v10"
)

// Inbound variants without a payload type of their own in domain.
type (
	joinCall domain.RoomPayload
	endCall  domain.RoomPayload
	ping     struct{}
)

// decode reads the type tag first, then the payload shape that tag implies.
func (ctl *SignalWSController) decode(s *wsSession, data []byte) (any, error) {
	var env domain.InboundEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecode, err)
	}

	switch env.Type {
	case domain.InChatMessage:
		return decodePayload[domain.ChatMessagePayload](ctl.validate, env.Data)
	case domain.InTyping:
		return decodePayload[domain.TypingPayload](ctl.validate, env.Data)
	case domain.InJoinVideoCall:
		return decodePayload[joinCall](ctl.validate, env.Data)
	case domain.InVideoSignal:
		return decodePayload[domain.VideoSignalPayload](ctl.validate, env.Data)
	case domain.InEndVideoCall:
		return decodePayload[endCall](ctl.validate, env.Data)
	case domain.InPing:
		return ping{}, nil
	}

	// On the call endpoint bare offer/answer/ice-candidate tags carry the
	// signal itself.
	if s.callRoom != "" && knownSignalType(string(env.Type)) {
		return domain.VideoSignalPayload{
			SignalType: string(env.Type),
			RoomID:     s.callRoom,
			SignalData: env.Data,
		}, nil
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrUnknownType, env.Type)
}

func decodePayload[T any](v *validator.Validate, raw json.RawMessage) (T, error) {
	var p T
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &p); err != nil {
			return p, fmt.Errorf("%w: %v", domain.ErrDecode, err)
		}
	}
	if err := v.Struct(p); err != nil {
		return p, fmt.Errorf("%w: %v", domain.ErrDecode, err)
	}
	return p, nil
}
