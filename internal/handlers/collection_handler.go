package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/classpulse/feedback-service/internal/services"
	"github.com/classpulse/feedback-service/internal/utils"
)

type CollectionHandler struct {
	BaseHandler
	collectionService services.CollectionService
}

func NewCollectionHandler(collectionService services.CollectionService, logger utils.Logger) *CollectionHandler {
	return &CollectionHandler{
		BaseHandler:       NewBaseHandler(logger),
		collectionService: collectionService,
	}
}

func (h *CollectionHandler) CreateCollection(c *gin.Context) {
	var req services.CreateCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	collection, err := h.collectionService.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, collection)
}

func (h *CollectionHandler) ListCollections(c *gin.Context) {
	collections, err := h.collectionService.List(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, collections)
}

func (h *CollectionHandler) RenameCollection(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.RenameCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	if err := h.collectionService.Rename(c.Request.Context(), id, &req); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Collection renamed"})
}

// DeleteCollection deletes a collection. The action query parameter decides
// what happens to its questions: move (with target_id) or delete.
func (h *CollectionHandler) DeleteCollection(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	action := c.Query("action")

	var targetID uint
	if raw := c.Query("target_id"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid target_id"})
			return
		}
		targetID = uint(parsed)
	}

	if err := h.collectionService.Delete(c.Request.Context(), id, action, targetID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Collection deleted"})
}
