package signal

import (
	"time"

	"github.com/dkeye/Consult/internal/domain"
)

func (ctl *SignalWSController) handlePing(s *wsSession) {
	ctl.reply(s, domain.OutPong, domain.PongData{Timestamp: time.Now().UTC()})
}
