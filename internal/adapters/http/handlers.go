package http

import (
	"errors"
	"net/http"

	"github.com/dkeye/Walkie/internal/adapters/rtc"
	"github.com/dkeye/Walkie/internal/app/orch"
	"github.com/dkeye/Walkie/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type handlers struct {
	orch *orch.Orchestrator
	ice  rtc.ICEConfig
}

type StatsResponse struct {
	Connections int               `json:"connections"`
	Counters    map[string]uint64 `json:"counters"`
}

func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GET /api/channels
func (h *handlers) listChannels(c *gin.Context) {
	c.JSON(http.StatusOK, h.orch.ListChannels())
}

// GET /api/channels/:channelId
func (h *handlers) getChannel(c *gin.Context) {
	id := domain.ChannelID(c.Param("channelId"))
	info, err := h.orch.ChannelInfo(id)
	if err != nil {
		if errors.Is(err, domain.ErrChannelNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Channel not found"})
			return
		}
		log.Error().Err(err).Str("module", "adapters.http").Str("channel", string(id)).Msg("channel info")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, info)
}

// GET /api/ice-servers
func (h *handlers) iceServers(c *gin.Context) {
	c.JSON(http.StatusOK, h.ice)
}

// GET /api/stats
func (h *handlers) stats(c *gin.Context) {
	c.JSON(http.StatusOK, StatsResponse{
		Connections: h.orch.ConnectionCount(),
		Counters:    h.orch.Dispatch.Metrics().Snapshot(),
	})
}
