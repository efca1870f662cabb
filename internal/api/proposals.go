package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Veraticus/rulesmith/internal/common"
	"github.com/Veraticus/rulesmith/internal/engine"
	"github.com/Veraticus/rulesmith/internal/model"
)

func (h *Handler) propose(c *gin.Context) {
	var in engine.ProposalInput
	if !bindJSON(c, &in) {
		return
	}

	proposal, err := h.engine.Propose(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, proposal)
}

func (h *Handler) listPending(c *gin.Context) {
	proposals, err := h.engine.ListPending(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, proposals)
}

// listProposals serves every proposal, optionally narrowed by ?status=.
func (h *Handler) listProposals(c *gin.Context) {
	var status *model.ProposalStatus
	if raw := c.Query("status"); raw != "" {
		parsed, err := model.ParseProposalStatus(raw)
		if err != nil {
			respondError(c, common.NewValidationError(err.Error()))
			return
		}
		status = &parsed
	}

	proposals, err := h.engine.ListProposals(c.Request.Context(), status, c.Query("order") == "desc")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, proposals)
}

func (h *Handler) getProposal(c *gin.Context) {
	proposal, err := h.engine.GetProposal(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, proposal)
}

func (h *Handler) approve(c *gin.Context) {
	result, err := h.engine.Approve(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Proposal approved and rule added.",
		"version": result.Version,
	})
}

func (h *Handler) reject(c *gin.Context) {
	if err := h.engine.Reject(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Proposal rejected."})
}
