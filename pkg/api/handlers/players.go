package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/urmzd/heosdial/pkg/api/types"
	"github.com/urmzd/heosdial/pkg/device"
)

// PlayersHandler handles player listing endpoints
type PlayersHandler struct {
	controller device.Controller
}

// NewPlayersHandler creates a new players handler
func NewPlayersHandler(controller device.Controller) *PlayersHandler {
	return &PlayersHandler{controller: controller}
}

// ListPlayers handles GET /players
// @Summary      List all players
// @Description  Returns every player in the current topology. Pass state=true to query each player's state.
// @Tags         players
// @Produce      json
// @Param        state  query     bool  false  "Include live state"
// @Success      200    {object}  types.ListPlayersResponse
// @Failure      500    {object}  types.ErrorResponse  "Controller error"
// @Router       /players [get]
func (h *PlayersHandler) ListPlayers(c *gin.Context) {
	ctx := c.Request.Context()
	withState := c.Query("state") == "true"

	players, err := h.controller.ListDevices(ctx)
	if err != nil {
		respondError(c, err, "")
		return
	}

	result := make([]types.PlayerWithState, 0, len(players))
	for _, p := range players {
		pws := toPlayerWithState(p)
		if withState {
			// Unreachable players are listed without state.
			if state, err := h.controller.GetDeviceState(ctx, p.ID); err == nil {
				pws.State = state
			}
		}
		result = append(result, pws)
	}

	c.JSON(http.StatusOK, types.ListPlayersResponse{
		Players: result,
		Count:   len(result),
	})
}

// GetPlayer handles GET /players/:id
// @Summary      Get player details
// @Description  Returns a player by player ID together with its live state
// @Tags         players
// @Produce      json
// @Param        id   path      string  true  "Player ID"
// @Success      200  {object}  types.PlayerResponse
// @Failure      404  {object}  types.ErrorResponse  "Player not found"
// @Failure      500  {object}  types.ErrorResponse  "Controller error"
// @Router       /players/{id} [get]
func (h *PlayersHandler) GetPlayer(c *gin.Context) {
	ctx := c.Request.Context()

	p, err := h.controller.GetDevice(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err, "Player not found")
		return
	}

	result := toPlayerWithState(*p)
	if state, err := h.controller.GetDeviceState(ctx, p.ID); err == nil {
		result.State = state
	}

	c.JSON(http.StatusOK, types.PlayerResponse{Player: result})
}

func toPlayerWithState(d device.Device) types.PlayerWithState {
	return types.PlayerWithState{
		ID:          d.ID,
		Name:        d.Name,
		Model:       d.Model,
		Address:     d.Address,
		GroupID:     d.GroupID,
		StateSchema: d.StateSchema,
	}
}
