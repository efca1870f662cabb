package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Veraticus/rulesmith/internal/engine"
	"github.com/Veraticus/rulesmith/internal/model"
)

func (h *Handler) suggestEnhancement(c *gin.Context) {
	var in engine.EnhancementInput
	if !bindJSON(c, &in) {
		return
	}

	enhancement, err := h.engine.SuggestEnhancement(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "received", "id": enhancement.ID})
}

func (h *Handler) listEnhancements(c *gin.Context) {
	enhancements, err := h.engine.ListEnhancements(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, enhancements)
}

func (h *Handler) getEnhancement(c *gin.Context) {
	enhancement, err := h.engine.GetEnhancement(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, enhancement)
}

func (h *Handler) updateEnhancement(c *gin.Context) {
	var patch engine.EnhancementPatch
	if !bindJSON(c, &patch) {
		return
	}

	enhancement, err := h.engine.UpdateEnhancement(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, enhancement)
}

func (h *Handler) enhancementToProposal(c *gin.Context) {
	proposal, err := h.engine.ToProposal(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "transferred", "proposal_id": proposal.ID})
}

func (h *Handler) proposalToEnhancement(c *gin.Context) {
	enhancement, err := h.engine.FromProposal(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "reverted", "enhancement_id": enhancement.ID})
}

func (h *Handler) acceptEnhancement(c *gin.Context) {
	h.transitionEnhancement(c, h.engine.AcceptEnhancement, model.EnhancementAccepted)
}

func (h *Handler) completeEnhancement(c *gin.Context) {
	h.transitionEnhancement(c, h.engine.CompleteEnhancement, model.EnhancementCompleted)
}

func (h *Handler) rejectEnhancement(c *gin.Context) {
	h.transitionEnhancement(c, h.engine.RejectEnhancement, model.EnhancementRejected)
}

func (h *Handler) transitionEnhancement(c *gin.Context, transition func(context.Context, string) error, to model.EnhancementStatus) {
	id := c.Param("id")
	if err := transition(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": to, "id": id})
}
