// Package api exposes the rule lifecycle engine over HTTP/JSON.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Veraticus/rulesmith/internal/engine"
)

// Options configures the router.
type Options struct {
	CORS CORSOptions
	// Gatherer backs GET /metrics. Nil uses the default registry.
	Gatherer prometheus.Gatherer
}

// Handler serves the lifecycle endpoints.
type Handler struct {
	engine *engine.Engine
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(eng *engine.Engine, opts Options) *gin.Engine {
	router := gin.New()
	router.Use(requestLogger(), recovery(), corsMiddleware(opts.CORS))

	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	h := &Handler{engine: eng}

	router.GET("/health", h.health)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	// Proposal workflow
	router.POST("/propose-rule-change", h.propose)
	router.GET("/pending-rule-changes", h.listPending)
	router.GET("/proposals", h.listProposals)
	router.GET("/proposals/:id", h.getProposal)
	router.POST("/approve-rule-change/:id", h.approve)
	router.POST("/reject-rule-change/:id", h.reject)

	// Rules
	router.GET("/rules", h.listRules)
	router.GET("/rules-mdc", h.rulesMDC)
	router.GET("/rules/:id", h.getRule)
	router.PATCH("/rules/:id", h.updateRule)
	router.GET("/rules/:id/history", h.history)
	router.POST("/rules/:id/promote", h.promote)

	// Enhancements
	router.POST("/suggest-enhancement", h.suggestEnhancement)
	router.GET("/enhancements", h.listEnhancements)
	router.GET("/enhancements/:id", h.getEnhancement)
	router.PATCH("/enhancements/:id", h.updateEnhancement)
	router.POST("/enhancement-to-proposal/:id", h.enhancementToProposal)
	router.POST("/proposal-to-enhancement/:id", h.proposalToEnhancement)
	router.POST("/accept-enhancement/:id", h.acceptEnhancement)
	router.POST("/complete-enhancement/:id", h.completeEnhancement)
	router.POST("/reject-enhancement/:id", h.rejectEnhancement)

	// Reviewer feedback
	feedback := router.Group("/api/rule_proposals/:id/feedback")
	{
		feedback.POST("", h.addFeedback)
		feedback.GET("", h.listFeedback)
	}

	return router
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
