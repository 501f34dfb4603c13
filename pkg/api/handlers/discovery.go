package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/urmzd/heosdial/pkg/api/types"
	"github.com/urmzd/heosdial/pkg/device"
)

// DiscoveryHandler handles topology refresh and the event stream
type DiscoveryHandler struct {
	controller device.Controller
	subscriber device.EventSubscriber
}

// NewDiscoveryHandler creates a new discovery handler
func NewDiscoveryHandler(controller device.Controller, subscriber device.EventSubscriber) *DiscoveryHandler {
	return &DiscoveryHandler{
		controller: controller,
		subscriber: subscriber,
	}
}

// Refresh handles POST /discovery/refresh
// @Summary      Refresh topology
// @Description  Re-reads players and groups from the network
// @Tags         discovery
// @Produce      json
// @Success      200  {object}  types.RefreshResponse
// @Failure      503  {object}  types.ErrorResponse  "No HEOS device reached yet"
// @Failure      504  {object}  types.ErrorResponse  "Request timed out"
// @Router       /discovery/refresh [post]
func (h *DiscoveryHandler) Refresh(c *gin.Context) {
	ctx := c.Request.Context()

	if err := h.controller.Refresh(ctx); err != nil {
		respondError(c, err, "")
		return
	}

	resp := types.RefreshResponse{Status: "refreshed", Timestamp: time.Now()}
	if players, err := h.controller.ListDevices(ctx); err == nil {
		resp.Players = len(players)
	}
	if groups, err := h.controller.ListGroups(ctx); err == nil {
		resp.Groups = len(groups)
	}

	c.JSON(http.StatusOK, resp)
}

// Events handles GET /discovery/events (SSE stream)
// @Summary      Subscribe to controller events
// @Description  Server-Sent Events stream of topology changes, state changes and job failures
// @Tags         discovery
// @Produce      text/event-stream
// @Success      200  {string}  string  "SSE event stream"
// @Router       /discovery/events [get]
func (h *DiscoveryHandler) Events(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	eventChan := h.subscriber.Subscribe()
	defer h.subscriber.Unsubscribe(eventChan)

	sendSSEEvent(c.Writer, "connected", map[string]any{
		"timestamp": time.Now(),
		"message":   "Connected to event stream",
	})
	c.Writer.Flush()

	clientGone := c.Request.Context().Done()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-clientGone:
			return

		case event, ok := <-eventChan:
			if !ok {
				return
			}
			sendSSEEvent(c.Writer, event.Type, event)
			c.Writer.Flush()

		case <-ticker.C:
			sendSSEEvent(c.Writer, "heartbeat", map[string]any{
				"timestamp": time.Now(),
			})
			c.Writer.Flush()
		}
	}
}

// sendSSEEvent writes an SSE event to the response
func sendSSEEvent(w io.Writer, eventType string, data any) {
	jsonData, _ := json.Marshal(data)
	io.WriteString(w, "event: "+eventType+"\n")
	io.WriteString(w, "data: "+string(jsonData)+"\n\n")
}
