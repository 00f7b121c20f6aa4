package http

import (
	nethttp "net/http"

	"github.com/dkeye/Consult/internal/app/orch"
	"github.com/dkeye/Consult/internal/domain"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type sessionRequest struct {
	Token string `json:"token" binding:"required"`
}

func createSession(gate Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req sessionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(nethttp.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		uid, err := gate.Authenticate(c.Request.Context(), req.Token)
		if err != nil {
			c.JSON(nethttp.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		s := sessions.Default(c)
		s.Set(sessionTokenKey, req.Token)
		if err := s.Save(); err != nil {
			log.Error().Err(err).Str("module", "adapters.http").Msg("session save")
			c.JSON(nethttp.StatusInternalServerError, gin.H{"error": "session save failed"})
			return
		}
		c.JSON(nethttp.StatusOK, gin.H{"user_id": uid})
	}
}

func deleteSession(c *gin.Context) {
	s := sessions.Default(c)
	s.Clear()
	if err := s.Save(); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("session clear")
	}
	c.Status(nethttp.StatusNoContent)
}

type createCallRequest struct {
	AppointmentID string `json:"appointment_id" binding:"required"`
	PatientID     int64  `json:"patient_id" binding:"required,gt=0"`
	DoctorID      int64  `json:"doctor_id" binding:"required,gt=0"`
}

type createCallResponse struct {
	RoomID        domain.RoomID         `json:"room_id"`
	JoinURL       string                `json:"join_url"`
	AppointmentID domain.AppointmentRef `json:"appointment_id"`
}

func createCall(o *orch.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createCallRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(nethttp.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		caller := c.MustGet(userKey).(domain.UserID)
		patient, doctor := domain.UserID(req.PatientID), domain.UserID(req.DoctorID)
		if caller != patient && caller != doctor {
			c.JSON(nethttp.StatusForbidden, gin.H{"error": domain.ErrUnauthorized.Error()})
			return
		}

		ref := domain.AppointmentRef(req.AppointmentID)
		id := o.CreateSession(ref, patient, doctor)
		c.JSON(nethttp.StatusCreated, createCallResponse{
			RoomID:        id,
			JoinURL:       o.JoinURL(id),
			AppointmentID: ref,
		})
	}
}

type statusResponse struct {
	Status            string   `json:"status"`
	ActiveConnections int      `json:"active_connections"`
	ActiveVideoRooms  int      `json:"active_video_rooms"`
	VideoRooms        []string `json:"video_rooms"`
}

func status(o *orch.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		rooms := o.RoomIDs()
		c.JSON(nethttp.StatusOK, statusResponse{
			Status:            "active",
			ActiveConnections: o.ActiveConnections(),
			ActiveVideoRooms:  o.ActiveRooms(),
			VideoRooms:        rooms,
		})
	}
}
