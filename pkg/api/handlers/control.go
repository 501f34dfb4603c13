package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/urmzd/heosdial/pkg/api/types"
	"github.com/urmzd/heosdial/pkg/device"
	"github.com/urmzd/heosdial/pkg/device/schema"
)

// ControlHandler handles player and group state endpoints
type ControlHandler struct {
	controller device.Controller
	validator  *schema.Validator
}

// NewControlHandler creates a new control handler
func NewControlHandler(controller device.Controller, validator *schema.Validator) *ControlHandler {
	return &ControlHandler{controller: controller, validator: validator}
}

// GetPlayerState handles GET /players/:id/state
// @Summary      Get player state
// @Description  Queries volume, mute, play state and now-playing media from the player
// @Tags         players
// @Produce      json
// @Param        id   path      string  true  "Player ID"
// @Success      200  {object}  types.StateResponse
// @Failure      404  {object}  types.ErrorResponse  "Player not found"
// @Failure      502  {object}  types.ErrorResponse  "Player rejected the command"
// @Failure      504  {object}  types.ErrorResponse  "Request timed out"
// @Router       /players/{id}/state [get]
func (h *ControlHandler) GetPlayerState(c *gin.Context) {
	ctx := c.Request.Context()

	d, err := h.controller.GetDevice(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err, "Player not found")
		return
	}

	state, err := h.controller.GetDeviceState(ctx, d.ID)
	if err != nil {
		respondError(c, err, "Player not found")
		return
	}

	c.JSON(http.StatusOK, types.StateResponse{
		Target:    string(device.TargetDevice),
		ID:        d.ID,
		Name:      d.Name,
		State:     state,
		Timestamp: time.Now(),
	})
}

// SetPlayerState handles POST /players/:id/state
// @Summary      Set player state
// @Description  Applies volume, volume_step, mute, play_state and skip. With async=true the change runs as a background job.
// @Tags         players
// @Accept       json
// @Produce      json
// @Param        id       path      string  true   "Player ID"
// @Param        async    query     bool    false  "Run as background job"
// @Param        request  body      object  true   "State to set"
// @Success      200      {object}  types.StateResponse
// @Success      202      {object}  types.JobResponse
// @Failure      400      {object}  types.ErrorResponse  "Invalid request"
// @Failure      404      {object}  types.ErrorResponse  "Player not found"
// @Failure      502      {object}  types.ErrorResponse  "Player rejected the command"
// @Failure      504      {object}  types.ErrorResponse  "Request timed out"
// @Router       /players/{id}/state [post]
func (h *ControlHandler) SetPlayerState(c *gin.Context) {
	ctx := c.Request.Context()

	req, ok := decodeState(c)
	if !ok {
		return
	}

	d, err := h.controller.GetDevice(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err, "Player not found")
		return
	}

	if err := h.validator.Validate(d.StateSchema, req); err != nil {
		respondError(c, err, "")
		return
	}

	if c.Query("async") == "true" {
		h.accepted(c, device.TargetDevice, d.ID, req)
		return
	}

	state, err := h.controller.SetDeviceState(ctx, d.ID, req)
	if err != nil {
		respondError(c, err, "Player not found")
		return
	}

	c.JSON(http.StatusOK, types.StateResponse{
		Target:    string(device.TargetDevice),
		ID:        d.ID,
		Name:      d.Name,
		State:     state,
		Timestamp: time.Now(),
	})
}

// GetGroupState handles GET /groups/:id/state
// @Summary      Get group state
// @Description  Queries group volume and mute through the group leader
// @Tags         groups
// @Produce      json
// @Param        id   path      string  true  "Group ID"
// @Success      200  {object}  types.StateResponse
// @Failure      404  {object}  types.ErrorResponse  "Group not found"
// @Failure      409  {object}  types.ErrorResponse  "Group has no leader"
// @Failure      504  {object}  types.ErrorResponse  "Request timed out"
// @Router       /groups/{id}/state [get]
func (h *ControlHandler) GetGroupState(c *gin.Context) {
	ctx := c.Request.Context()

	g, err := h.controller.GetGroup(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err, "Group not found")
		return
	}

	state, err := h.controller.GetGroupState(ctx, g.ID)
	if err != nil {
		respondError(c, err, "Group not found")
		return
	}

	c.JSON(http.StatusOK, types.StateResponse{
		Target:    string(device.TargetGroup),
		ID:        g.ID,
		Name:      g.Name,
		State:     state,
		Timestamp: time.Now(),
	})
}

// SetGroupState handles POST /groups/:id/state
// @Summary      Set group state
// @Description  Applies volume, volume_step and mute to a group. With async=true the change runs as a background job.
// @Tags         groups
// @Accept       json
// @Produce      json
// @Param        id       path      string  true   "Group ID"
// @Param        async    query     bool    false  "Run as background job"
// @Param        request  body      object  true   "State to set"
// @Success      200      {object}  types.StateResponse
// @Success      202      {object}  types.JobResponse
// @Failure      400      {object}  types.ErrorResponse  "Invalid request"
// @Failure      404      {object}  types.ErrorResponse  "Group not found"
// @Failure      409      {object}  types.ErrorResponse  "Group has no leader"
// @Failure      504      {object}  types.ErrorResponse  "Request timed out"
// @Router       /groups/{id}/state [post]
func (h *ControlHandler) SetGroupState(c *gin.Context) {
	ctx := c.Request.Context()

	req, ok := decodeState(c)
	if !ok {
		return
	}

	g, err := h.controller.GetGroup(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err, "Group not found")
		return
	}

	if err := h.validator.Validate(g.StateSchema, req); err != nil {
		respondError(c, err, "")
		return
	}

	if c.Query("async") == "true" {
		h.accepted(c, device.TargetGroup, g.ID, req)
		return
	}

	state, err := h.controller.SetGroupState(ctx, g.ID, req)
	if err != nil {
		respondError(c, err, "Group not found")
		return
	}

	c.JSON(http.StatusOK, types.StateResponse{
		Target:    string(device.TargetGroup),
		ID:        g.ID,
		Name:      g.Name,
		State:     state,
		Timestamp: time.Now(),
	})
}

func (h *ControlHandler) accepted(c *gin.Context, target device.Target, id string, req map[string]any) {
	jobID := h.controller.Dispatch(target, id, req)
	c.JSON(http.StatusAccepted, types.JobResponse{
		JobID:  jobID,
		Status: "accepted",
		Target: string(target),
		ID:     id,
	})
}

func decodeState(c *gin.Context) (map[string]any, bool) {
	var req map[string]any
	if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
		return nil, false
	}
	return req, true
}
