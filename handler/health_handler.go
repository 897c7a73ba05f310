package handler

import (
	"context"
	"net/http"
	"time"

	"skilltracker/utils"

	"github.com/gin-gonic/gin"
	"github.com/juju/clock"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Pinger is satisfied by *mongo.Client.
type Pinger interface {
	Ping(ctx context.Context, rp *readpref.ReadPref) error
}

type HealthHandler struct {
	db        Pinger
	diskPath  string
	clock     clock.Clock
	startedAt time.Time
}

// NewHealthHandler reports on db and, when diskPath is set, on the disk that
// holds the blob store.
func NewHealthHandler(db Pinger, diskPath string, clk clock.Clock) *HealthHandler {
	return &HealthHandler{
		db:        db,
		diskPath:  diskPath,
		clock:     clk,
		startedAt: clk.Now(),
	}
}

type healthResponse struct {
	Status    string            `json:"status"`
	Database  string            `json:"database"`
	Uptime    string            `json:"uptime"`
	Timestamp time.Time         `json:"timestamp"`
	System    utils.SystemStats `json:"system"`
}

func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	now := h.clock.Now()
	resp := healthResponse{
		Status:    "healthy",
		Database:  "connected",
		Uptime:    now.Sub(h.startedAt).Round(time.Second).String(),
		Timestamp: now.UTC(),
		System:    utils.GetSystemStats(ctx, h.diskPath),
	}

	status := http.StatusOK
	if h.db == nil {
		resp.Database = "not configured"
	} else if err := h.db.Ping(ctx, readpref.Primary()); err != nil {
		resp.Status = "degraded"
		resp.Database = "disconnected"
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, resp)
}

// Index answers GET / with a short banner.
func (h *HealthHandler) Index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":   "API working: Skill Tracker Backend Server",
		"status":    "running",
		"timestamp": h.clock.Now().UTC(),
	})
}
