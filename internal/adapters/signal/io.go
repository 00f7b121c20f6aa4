package signal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dkeye/Consult/internal/app"
	"github.com/dkeye/Consult/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var errUnexpected = errors.New("unexpected dispatch failure")

const genericErrorMessage = "Error processing message"

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.opts.PingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Msg("writePump ctx done")
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown")
			_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(ctl.opts.WriteTimeout))
			return
		case data, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.opts.WriteTimeout)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.opts.WriteTimeout)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Debug().Err(err).Str("module", "signal").Msg("writePump ping")
				return
			}
		}
	}
}

// readPump is the dispatch loop: it ends only when reading fails.
func (ctl *SignalWSController) readPump(s *wsSession) {
	ws := s.conn.conn
	pongWait := ctl.opts.PingPeriod * 10 / 9
	ws.SetReadLimit(ctl.opts.ReadLimit)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				log.Warn().Err(err).Str("module", "signal").Str("user", s.user.String()).Msg("readPump read error")
			} else {
				log.Info().Str("module", "signal").Str("user", s.user.String()).Msg("readPump closing")
			}
			return
		}
		_ = ws.SetReadDeadline(time.Now().Add(pongWait))

		if err := ctl.dispatch(s, data); err != nil {
			ctl.report(s, err)
		}
	}
}

// dispatch handles one inbound message. Every failure, panics included,
// comes back as an error; the loop reports it and keeps reading.
func (ctl *SignalWSController) dispatch(s *wsSession, data []byte) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", errUnexpected, rec)
		}
	}()

	if !ctl.limiter.Allow(s.user) {
		return domain.ErrRateLimited
	}

	msg, err := ctl.decode(s, data)
	if err != nil {
		return err
	}

	switch m := msg.(type) {
	case domain.ChatMessagePayload:
		ctl.handleChat(s, m)
	case domain.TypingPayload:
		ctl.handleTyping(s, m)
	case joinCall:
		ctl.handleJoin(s, m.RoomID)
	case domain.VideoSignalPayload:
		return ctl.handleVideoSignal(s, m)
	case endCall:
		ctl.handleEnd(s, m.RoomID)
	case ping:
		ctl.handlePing(s)
	}
	return nil
}

func (ctl *SignalWSController) report(s *wsSession, err error) {
	switch {
	case errors.Is(err, domain.ErrDecode),
		errors.Is(err, domain.ErrUnknownType),
		errors.Is(err, domain.ErrRateLimited),
		errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrSessionEnded):
		log.Warn().Err(err).Str("module", "signal").Str("user", s.user.String()).Msg("message rejected")
		ctl.sendError(s, err.Error())
	default:
		log.Error().Err(err).Str("module", "signal").Str("user", s.user.String()).Msg("error handling message")
		ctl.sendError(s, genericErrorMessage)
	}
}

// reply writes straight to the originating connection, not through the
// registry, so it reaches this socket even if it was superseded.
func (ctl *SignalWSController) reply(s *wsSession, t domain.EnvelopeType, data any) {
	frame, err := app.Encode(domain.NewEnvelope(t, data))
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("reply marshal")
		return
	}
	if err := s.conn.TrySend(frame); err != nil {
		log.Debug().Err(err).Str("module", "signal").Str("user", s.user.String()).Msg("reply dropped")
	}
}

func (ctl *SignalWSController) sendError(s *wsSession, message string) {
	ctl.reply(s, domain.OutError, domain.ErrorData{Message: message})
}
