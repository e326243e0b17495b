package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/curriculum-graph/internal/domain/curriculum"
	"github.com/yungbote/curriculum-graph/internal/http/response"
	"github.com/yungbote/curriculum-graph/internal/platform/logger"
)

// CRUDService is the shape shared by every entity service except concepts.
type CRUDService[In, Patch any] interface {
	Create(ctx context.Context, in In) (curriculum.Aggregate, error)
	Update(ctx context.Context, id string, p Patch) (curriculum.Aggregate, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (curriculum.Aggregate, error)
	List(ctx context.Context) ([]curriculum.Node, error)
}

// EntityHandler exposes one CRUDService as REST routes.
type EntityHandler[In, Patch any] struct {
	log *logger.Logger
	svc CRUDService[In, Patch]
}

func NewEntityHandler[In, Patch any](log *logger.Logger, name string, svc CRUDService[In, Patch]) *EntityHandler[In, Patch] {
	return &EntityHandler[In, Patch]{log: log.With("handler", name), svc: svc}
}

func (h *EntityHandler[In, Patch]) Create(c *gin.Context) {
	var in In
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

func (h *EntityHandler[In, Patch]) Update(c *gin.Context) {
	var p Patch
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

func (h *EntityHandler[In, Patch]) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, h.log, err)
		return
	}
	response.RespondNoContent(c)
}

func (h *EntityHandler[In, Patch]) Get(c *gin.Context) {
	agg, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, h.log, err)
		return
	}
	response.RespondOK(c, agg)
}

func (h *EntityHandler[In, Patch]) List(c *gin.Context) {
	nodes, err := h.svc.List(c.Request.Context())
	if err != nil {
		response.Error(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"items": nodes})
}

// Mount registers list/get on read and create/update/delete on write.
func (h *EntityHandler[In, Patch]) Mount(read, write gin.IRoutes, path string) {
	read.GET(path, h.List)
	read.GET(path+"/:id", h.Get)
	write.POST(path, h.Create)
	write.PATCH(path+"/:id", h.Update)
	write.DELETE(path+"/:id", h.Delete)
}

// decodeBody uses encoding/json directly so Optional fields see key presence; gin's
// binding would run validation tags this package does not use.
func decodeBody(c *gin.Context, dst any) error {
	dec := json.NewDecoder(c.Request.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return err
	}
	return nil
}
