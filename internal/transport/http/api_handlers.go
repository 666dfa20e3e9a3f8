package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type apiHandlers struct {
	hub ChatHub
}

func (h *apiHandlers) stats(c *gin.Context) {
	c.JSON(http.StatusOK, statsFromCore(h.hub.Stats()))
}

func (h *apiHandlers) sessions(c *gin.Context) {
	online := h.hub.Stats().Online
	if online == nil {
		online = []string{}
	}
	c.JSON(http.StatusOK, SessionsResponse{Users: online})
}

func (h *apiHandlers) groups(c *gin.Context) {
	c.JSON(http.StatusOK, groupsFromCore(h.hub.Stats().Groups))
}
