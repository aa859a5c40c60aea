package http

import (
	"context"
	"path/filepath"
	"time"

	"github.com/dkeye/Walkie/internal/adapters/rtc"
	"github.com/dkeye/Walkie/internal/adapters/signal"
	"github.com/dkeye/Walkie/internal/app/orch"
	"github.com/dkeye/Walkie/internal/config"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	sessionName    = "WalkieSessions"
	clientTokenKey = "ct"
	clientTokenTTL = 7 * 24 * time.Hour
)

// ClientTokenMiddleware keeps a per-browser uuid in the cookie session and
// exposes it as "client_token". It is the default user id on join.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		s := sessions.Default(c)
		token, _ := s.Get(clientTokenKey).(string)
		if token == "" {
			token = uuid.NewString()
			s.Set(clientTokenKey, token)
			if err := s.Save(); err != nil {
				log.Warn().Err(err).Str("module", "adapters.http").Msg("save client token")
			}
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, o *orch.Orchestrator, ice rtc.ICEConfig) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(clientTokenTTL.Seconds()),
		HttpOnly: true,
	})
	r.Use(sessions.Sessions(sessionName, store))
	r.Use(ClientTokenMiddleware())

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(filepath.Join(cfg.StaticPath, "index.html"))
	})
	r.GET("/health", handleHealth)

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	h := &handlers{orch: o, ice: ice}
	ctrl := signal.NewSignalWSController(o, signal.SettingsFromConfig(cfg))

	api := r.Group("/api")
	api.GET("/channels", h.listChannels)
	api.GET("/channels/:channelId", h.getChannel)
	api.GET("/ice-servers", h.iceServers)
	api.GET("/stats", h.stats)

	api.GET("/ws/signal", func(c *gin.Context) {
		log.Debug().Str("module", "adapters.http").Str("token", c.GetString("client_token")).Msg("ws signal endpoint hit")
		ctrl.HandleSignal(ctx, c)
	})

	return r
}
