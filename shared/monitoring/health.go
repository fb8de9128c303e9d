package monitoring

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthServer serves /health and /status. Agents mount their own API
// routes on Router before Start.
type HealthServer struct {
	monitor *Monitor
	port    string
	router  *gin.Engine
	server  *http.Server
}

func NewHealthServer(monitor *Monitor, port string) *HealthServer {
	if port == "" {
		port = "8080"
	}
	gin.SetMode(gin.ReleaseMode)

	h := &HealthServer{
		monitor: monitor,
		port:    port,
		router:  gin.New(),
	}
	h.router.Use(gin.Recovery())
	h.router.GET("/health", h.healthHandler)
	h.router.GET("/status", h.statusHandler)
	return h
}

func (h *HealthServer) Router() *gin.Engine { return h.router }

func (h *HealthServer) Start() {
	h.server = &http.Server{
		Addr:              ":" + h.port,
		Handler:           h.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("Health check server starting", "port", h.port)
	go func() {
		if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Health server error", "error", err)
		}
	}()
}

func (h *HealthServer) Shutdown(ctx context.Context) error {
	if h.server == nil {
		return nil
	}
	return h.server.Shutdown(ctx)
}

func (h *HealthServer) healthHandler(c *gin.Context) {
	if h.monitor.IsHealthy() {
		c.String(http.StatusOK, "OK - %s", h.monitor.GetStatusSummary())
		return
	}
	c.String(http.StatusServiceUnavailable, "Service unhealthy - %s", h.monitor.GetStatusSummary())
}

func (h *HealthServer) statusHandler(c *gin.Context) {
	c.String(http.StatusOK, "%s", h.monitor.GetStatusSummary())
}
