package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Veraticus/rulesmith/internal/engine"
)

func (h *Handler) addFeedback(c *gin.Context) {
	var in engine.FeedbackInput
	if !bindJSON(c, &in) {
		return
	}

	feedback, err := h.engine.AddFeedback(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, feedback)
}

func (h *Handler) listFeedback(c *gin.Context) {
	feedback, err := h.engine.ListFeedback(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, feedback)
}
