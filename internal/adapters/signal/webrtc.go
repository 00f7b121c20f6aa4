package signal

import (
	"fmt"

	"github.com/dkeye/Consult/internal/domain"
	"github.com/pion/webrtc/v4"
)

// knownSignalType accepts SDP types plus the ICE candidate tags clients use.
func knownSignalType(t string) bool {
	switch t {
	case "candidate", "ice-candidate":
		return true
	}
	return webrtc.NewSDPType(t) != webrtc.SDPTypeUnknown
}

func (ctl *SignalWSController) handleVideoSignal(s *wsSession, p domain.VideoSignalPayload) error {
	if !knownSignalType(p.SignalType) {
		return fmt.Errorf("%w: signal_type %q", domain.ErrDecode, p.SignalType)
	}
	return ctl.Orch.RelaySignal(domain.Signal{
		Type:   p.SignalType,
		RoomID: p.RoomID,
		From:   s.user,
		Data:   p.SignalData,
	})
}
