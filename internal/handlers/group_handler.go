package handlers

import (
	"github.com/gin-gonic/gin"

	"relaypanel/internal/services"
)

// GroupHandler handles group listing requests.
type GroupHandler struct {
	optionService services.OptionServicer
}

// NewGroupHandler creates a new GroupHandler.
func NewGroupHandler(optionService services.OptionServicer) *GroupHandler {
	return &GroupHandler{optionService: optionService}
}

// List returns all group names in display order
// @Summary     List groups
// @Description Group names, explicit order first, the rest alphabetically
// @Tags        groups
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} SuccessResponse "Group names"
// @Router      /group/ [get]
func (h *GroupHandler) List(c *gin.Context) {
	respondOK(c, h.optionService.GroupNames())
}

// UserGroups returns the groups the calling user may select
// @Summary     List usable groups
// @Description Usable groups with ratio and ordering, synthetic auto entry first when configured
// @Tags        groups
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} SuccessResponse "Usable groups"
// @Router      /user/groups [get]
func (h *GroupHandler) UserGroups(c *gin.Context) {
	respondOK(c, h.optionService.UserGroups())
}
