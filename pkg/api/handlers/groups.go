package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/urmzd/heosdial/pkg/api/types"
	"github.com/urmzd/heosdial/pkg/device"
)

// GroupsHandler handles group listing endpoints
type GroupsHandler struct {
	controller device.Controller
}

// NewGroupsHandler creates a new groups handler
func NewGroupsHandler(controller device.Controller) *GroupsHandler {
	return &GroupsHandler{controller: controller}
}

// ListGroups handles GET /groups
// @Summary      List all groups
// @Description  Returns every group in the current topology
// @Tags         groups
// @Produce      json
// @Success      200  {object}  types.ListGroupsResponse
// @Failure      500  {object}  types.ErrorResponse  "Controller error"
// @Router       /groups [get]
func (h *GroupsHandler) ListGroups(c *gin.Context) {
	groups, err := h.controller.ListGroups(c.Request.Context())
	if err != nil {
		respondError(c, err, "")
		return
	}

	result := make([]types.GroupWithState, 0, len(groups))
	for _, g := range groups {
		result = append(result, toGroupWithState(g))
	}

	c.JSON(http.StatusOK, types.ListGroupsResponse{
		Groups: result,
		Count:  len(result),
	})
}

// GetGroup handles GET /groups/:id
// @Summary      Get group details
// @Description  Returns a group by group ID together with its live state
// @Tags         groups
// @Produce      json
// @Param        id   path      string  true  "Group ID"
// @Success      200  {object}  types.GroupResponse
// @Failure      404  {object}  types.ErrorResponse  "Group not found"
// @Failure      500  {object}  types.ErrorResponse  "Controller error"
// @Router       /groups/{id} [get]
func (h *GroupsHandler) GetGroup(c *gin.Context) {
	ctx := c.Request.Context()

	g, err := h.controller.GetGroup(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err, "Group not found")
		return
	}

	result := toGroupWithState(*g)
	if state, err := h.controller.GetGroupState(ctx, g.ID); err == nil {
		result.State = state
	}

	c.JSON(http.StatusOK, types.GroupResponse{Group: result})
}

func toGroupWithState(g device.Group) types.GroupWithState {
	return types.GroupWithState{
		ID:          g.ID,
		Name:        g.Name,
		LeaderID:    g.LeaderID,
		MemberIDs:   g.MemberIDs,
		StateSchema: g.StateSchema,
	}
}
