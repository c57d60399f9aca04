package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/mindful-finance-ledger/internal/api_gateway/service"
	"github.com/mindful-finance-ledger/internal/domain/category"
)

type CategoryHandler struct {
	categoryService service.CategoryService
	logger          *slog.Logger
}

func NewCategoryHandler(logger *slog.Logger, categoryService service.CategoryService) *CategoryHandler {
	return &CategoryHandler{
		categoryService: categoryService,
		logger:          logger,
	}
}

// List returns the system categories followed by the owner's own, optionally narrowed by ?kind=
func (h *CategoryHandler) List(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	categories, err := h.categoryService.ListCategories(c.Request.Context(), owner, category.Kind(c.Query("kind")))
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	RespondOK(c, categories)
}

func (h *CategoryHandler) Create(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	created, err := h.categoryService.CreateCategory(c.Request.Context(), owner, req.spec())
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	RespondCreated(c, created)
}

func (h *CategoryHandler) Update(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	updated, err := h.categoryService.UpdateCategory(c.Request.Context(), owner, c.Param("id"), req.spec())
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	RespondOK(c, updated)
}

func (h *CategoryHandler) Delete(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	if err := h.categoryService.DeleteCategory(c.Request.Context(), owner, c.Param("id")); err != nil {
		RespondError(c, h.logger, err)
		return
	}

	RespondNoContent(c)
}
