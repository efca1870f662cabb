package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Veraticus/rulesmith/internal/common"
	"github.com/Veraticus/rulesmith/internal/engine"
	"github.com/Veraticus/rulesmith/internal/model"
	"github.com/Veraticus/rulesmith/internal/service"
)

// promoteRequest is the body of POST /rules/:id/promote.
type promoteRequest struct {
	ScopeLevel string `json:"scope_level"`
	ScopeID    string `json:"scope_id"`
}

func (h *Handler) listRules(c *gin.Context) {
	filter := service.RuleFilter{
		Project:  c.Query("project"),
		Tag:      c.Query("tag"),
		ScopeID:  c.Query("scope_id"),
		RuleType: c.Query("rule_type"),
	}
	if raw := c.Query("category"); raw != "" {
		for _, category := range strings.Split(raw, ",") {
			if category = strings.TrimSpace(category); category != "" {
				filter.Categories = append(filter.Categories, category)
			}
		}
	}
	if raw := c.Query("scope_level"); raw != "" {
		level, err := model.ParseScopeLevel(raw)
		if err != nil {
			respondError(c, common.NewValidationError(err.Error()))
			return
		}
		filter.ScopeLevel = level
	}

	rules, err := h.engine.ListRules(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rules)
}

func (h *Handler) rulesMDC(c *gin.Context) {
	bodies, err := h.engine.RulesMDC(c.Request.Context(), c.Query("project"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bodies)
}

func (h *Handler) getRule(c *gin.Context) {
	rule, err := h.engine.GetRule(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rule)
}

func (h *Handler) updateRule(c *gin.Context) {
	var patch engine.RulePatch
	if !bindJSON(c, &patch) {
		return
	}

	rule, err := h.engine.UpdateRule(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rule)
}

func (h *Handler) history(c *gin.Context) {
	versions, err := h.engine.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, versions)
}

func (h *Handler) promote(c *gin.Context) {
	var req promoteRequest
	if !bindJSON(c, &req) {
		return
	}

	rule, err := h.engine.Promote(c.Request.Context(), c.Param("id"), req.ScopeLevel, req.ScopeID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rule)
}
