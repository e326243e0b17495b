package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	domainagg "github.com/yungbote/curriculum-graph/internal/domain/aggregates"
	"github.com/yungbote/curriculum-graph/internal/http/response"
	"github.com/yungbote/curriculum-graph/internal/platform/logger"
	"github.com/yungbote/curriculum-graph/internal/services"
)

type ConceptHandler struct {
	log *logger.Logger
	svc services.ConceptService
}

func NewConceptHandler(log *logger.Logger, svc services.ConceptService) *ConceptHandler {
	return &ConceptHandler{log: log.With("handler", "ConceptHandler"), svc: svc}
}

func (h *ConceptHandler) Create(c *gin.Context) {
	var in services.ConceptInput
	if err := decodeBody(c, &in); err != nil {
		response.BadBody(c, err)
		return
	}
	agg, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		response.Error(c, h.log, err)
		return
	}
	response.RespondCreated(c, agg)
}

func (h *ConceptHandler) Update(c *gin.Context) {
	var p services.ConceptPatch
	if err := decodeBody(c, &p); err != nil {
		response.BadBody(c, err)
		return
	}
	agg, err := h.svc.Update(c.Request.Context(), c.Param("id"), p)
	if err != nil {
		response.Error(c, h.log, err)
		return
	}
	response.RespondOK(c, agg)
}

// Delete detaches by default; ?mode=leaf refuses concepts that still have children.
func (h *ConceptHandler) Delete(c *gin.Context) {
	mode := strings.ToLower(strings.TrimSpace(c.Query("mode")))
	if mode != "" && mode != "leaf" && mode != "detach" {
		response.RespondError(c, http.StatusBadRequest, string(domainagg.CodeBadRequest), errUnknownMode(mode))
		return
	}
	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), mode == "leaf"); err != nil {
		response.Error(c, h.log, err)
		return
	}
	response.RespondNoContent(c)
}

func (h *ConceptHandler) Get(c *gin.Context) {
	agg, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, h.log, err)
		return
	}
	response.RespondOK(c, agg)
}

func (h *ConceptHandler) List(c *gin.Context) {
	nodes, err := h.svc.List(c.Request.Context())
	if err != nil {
		response.Error(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"items": nodes})
}

func (h *ConceptHandler) Hierarchy(c *gin.Context) {
	forest, err := h.svc.Hierarchy(c.Request.Context())
	if err != nil {
		response.Error(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"roots": forest})
}

func (h *ConceptHandler) Subtree(c *gin.Context) {
	tree, err := h.svc.Subtree(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, h.log, err)
		return
	}
	response.RespondOK(c, tree)
}

func (h *ConceptHandler) AddPrerequisite(c *gin.Context) {
	agg, err := h.svc.AddPrerequisite(c.Request.Context(), c.Param("id"), c.Param("prereqId"))
	if err != nil {
		response.Error(c, h.log, err)
		return
	}
	response.RespondCreated(c, agg)
}

func (h *ConceptHandler) RemovePrerequisite(c *gin.Context) {
	if err := h.svc.RemovePrerequisite(c.Request.Context(), c.Param("id"), c.Param("prereqId")); err != nil {
		response.Error(c, h.log, err)
		return
	}
	response.RespondNoContent(c)
}

// Mount registers the concept routes. The static /hierarchy route is registered next to
// /:id; gin resolves the literal segment first.
func (h *ConceptHandler) Mount(read, write gin.IRoutes) {
	read.GET("/concepts", h.List)
	read.GET("/concepts/hierarchy", h.Hierarchy)
	read.GET("/concepts/:id", h.Get)
	read.GET("/concepts/:id/subtree", h.Subtree)
	write.POST("/concepts", h.Create)
	write.PATCH("/concepts/:id", h.Update)
	write.DELETE("/concepts/:id", h.Delete)
	write.POST("/concepts/:id/prerequisites/:prereqId", h.AddPrerequisite)
	write.DELETE("/concepts/:id/prerequisites/:prereqId", h.RemovePrerequisite)
}

type errUnknownMode string

func (e errUnknownMode) Error() string { return "unknown delete mode " + string(e) }
