package handlers

import (
	"net/http"

	"credit-scoring-service/internal/pkg/cache"
	"credit-scoring-service/internal/pkg/models"
	"credit-scoring-service/internal/pkg/startup"

	"github.com/gin-gonic/gin"
)

// StartupStatusInterface exposes the orchestrator's progress.
type StartupStatusInterface interface {
	Status() startup.Status
}

// RecentEventsInterface exposes the synchronizer's event ring.
type RecentEventsInterface interface {
	Recent() []models.SyncEvent
}

type SystemHandler struct {
	cache        *cache.Cache
	orchestrator StartupStatusInterface
	events       RecentEventsInterface
}

func NewSystemHandler(c *cache.Cache, orchestrator StartupStatusInterface, events RecentEventsInterface) *SystemHandler {
	return &SystemHandler{cache: c, orchestrator: orchestrator, events: events}
}

func (h *SystemHandler) CacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.cache.Stats())
}

func (h *SystemHandler) Startup(c *gin.Context) {
	c.JSON(http.StatusOK, h.orchestrator.Status())
}

func (h *SystemHandler) RecentEvents(c *gin.Context) {
	c.JSON(http.StatusOK, h.events.Recent())
}

// Health reports degraded (but still 200) when running in fallback mode, and
// 503 while startup is incomplete.
func (h *SystemHandler) Health(c *gin.Context) {
	status := h.orchestrator.Status()
	switch {
	case !status.Completed:
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "starting", "phase": status.Phase})
	case status.FallbackMode:
		c.JSON(http.StatusOK, gin.H{"status": "degraded"})
	default:
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
