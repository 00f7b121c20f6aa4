package signal

import (
	"github.com/dkeye/Consult/internal/domain"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleJoin(s *wsSession, room domain.RoomID) {
	log.Info().Str("module", "signal").Str("user", s.user.String()).Str("room", string(room)).Msg("join")
	res := domain.ResultData{RoomID: room}
	if _, err := ctl.Orch.JoinCall(room, s.user); err != nil {
		res.Error = err.Error()
	} else {
		res.Success = true
	}
	ctl.reply(s, domain.OutVideoCallJoinResult, res)
}

func (ctl *SignalWSController) handleEnd(s *wsSession, room domain.RoomID) {
	log.Info().Str("module", "signal").Str("user", s.user.String()).Str("room", string(room)).Msg("end call")
	res := domain.ResultData{RoomID: room}
	if err := ctl.Orch.EndCall(room, s.user); err != nil {
		res.Error = err.Error()
	} else {
		res.Success = true
	}
	ctl.reply(s, domain.OutVideoCallEndResult, res)
}
