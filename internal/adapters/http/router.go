package http

import (
	"context"
	"errors"
	nethttp "net/http"
	"strings"

	"github.com/dkeye/Consult/internal/adapters/auth"
	"github.com/dkeye/Consult/internal/adapters/signal"
	"github.com/dkeye/Consult/internal/app/orch"
	"github.com/dkeye/Consult/internal/config"
	"github.com/dkeye/Consult/internal/domain"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	sessionName     = "ConsultSessions"
	sessionTokenKey = "token"
	userKey         = "user_id"
)

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (domain.UserID, error)
}

func SetupRouter(ctx context.Context, cfg *config.Config, o *orch.Orchestrator, gate Authenticator, ctl *signal.SignalWSController) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	store.Options(sessions.Options{Path: "/", HttpOnly: true, MaxAge: 3600 * 24})
	r.Use(sessions.Sessions(sessionName, store))

	log.Info().Str("module", "adapters.http").Msg("router setup")

	api := r.Group("/api")

	api.POST("/session", createSession(gate))
	api.DELETE("/session", deleteSession)
	api.POST("/calls", BearerAuth(gate), createCall(o))

	ws := api.Group("/ws")
	ws.GET("/status", status(o))

	ws.GET("", func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			if v, ok := sessions.Default(c).Get(sessionTokenKey).(string); ok {
				token = v
			}
		}
		uid, ok := authenticateWS(c, gate, ctl, token)
		if !ok {
			return
		}
		ctl.HandleSignal(ctx, c, uid)
	})

	ws.GET("/video/:room_id/:token", func(c *gin.Context) {
		uid, ok := authenticateWS(c, gate, ctl, c.Param("token"))
		if !ok {
			return
		}
		room := domain.RoomID(c.Param("room_id"))
		log.Info().Str("module", "adapters.http").Str("user", uid.String()).Str("room", string(room)).Msg("ws video endpoint hit")
		ctl.HandleCall(ctx, c, uid, room)
	})

	ws.GET("/:token", func(c *gin.Context) {
		uid, ok := authenticateWS(c, gate, ctl, c.Param("token"))
		if !ok {
			return
		}
		ctl.HandleSignal(ctx, c, uid)
	})

	return r
}

// authenticateWS closes the upgrade with a policy violation when the token
// does not resolve to an active user.
func authenticateWS(c *gin.Context, gate Authenticator, ctl *signal.SignalWSController, token string) (domain.UserID, bool) {
	uid, err := gate.Authenticate(c.Request.Context(), token)
	if err != nil {
		log.Info().Err(err).Str("module", "adapters.http").Msg("ws auth rejected")
		reason := "Invalid token"
		if errors.Is(err, auth.ErrInactiveUser) {
			reason = "User not found or inactive"
		}
		ctl.Reject(c, reason)
		return 0, false
	}
	return uid, true
}

// BearerAuth resolves the Authorization header into a user id stored on the
// gin context under userKey.
func BearerAuth(gate Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			c.AbortWithStatusJSON(nethttp.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		uid, err := gate.Authenticate(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(nethttp.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.Set(userKey, uid)
		c.Next()
	}
}
