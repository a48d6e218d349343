package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/todo-list-api/internal/middleware"
	"github.com/noah-isme/todo-list-api/internal/models"
	"github.com/noah-isme/todo-list-api/internal/service"
	appErrors "github.com/noah-isme/todo-list-api/pkg/errors"
	"github.com/noah-isme/todo-list-api/pkg/response"
)

type todoService interface {
	Add(ctx context.Context, req service.TodoCreateRequest, ownerID int64) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.TodoItem, error)
	Update(ctx context.Context, req service.TodoUpdateRequest, ownerID int64) error
	DeleteByID(ctx context.Context, id int64) error
	ListPagedFiltered(ctx context.Context, filter models.TodoFilter, ownerID int64) (*models.TodoPage, error)
	ListAll(ctx context.Context, ownerID int64) ([]models.TodoItem, error)
	ListByDueDate(ctx context.Context, date time.Time) ([]models.TodoItem, error)
	ListCompleted(ctx context.Context, skip, take int) (*models.TodoPage, bool, error)
	ListIncomplete(ctx context.Context, skip, take int) (*models.TodoPage, bool, error)
	TotalCount(ctx context.Context) (int, error)
	Export(ctx context.Context, ownerID int64, format string) ([]byte, string, error)
}

// TodoHandler wires HTTP endpoints to the todo service.
type TodoHandler struct {
	service todoService
}

// NewTodoHandler creates a new handler.
func NewTodoHandler(svc todoService) *TodoHandler {
	return &TodoHandler{service: svc}
}

// Add godoc
// @Summary Add item
// @Description Create a to-do item owned by the caller
// @Tags TodoList
// @Accept json
// @Produce json
// @Param payload body service.TodoCreateRequest true "Item payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /todo-list/add [post]
func (h *TodoHandler) Add(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.TodoCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid item payload"))
		return
	}

	id, err := h.service.Add(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"id": id}, nil)
}

// Get godoc
// @Summary Get item
// @Description Get a single item by id
// @Tags TodoList
// @Produce json
// @Param id path int true "Item ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /todo-list/get/{id} [get]
func (h *TodoHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid item id"))
		return
	}

	item, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, item, nil)
}

// GetAll godoc
// @Summary List items
// @Description List items with filtering and pagination
// @Tags TodoList
// @Produce json
// @Param search query string false "Title substring"
// @Param isCompleted query bool false "Completion flag"
// @Param fromDueDate query string false "Due date lower bound (exclusive)"
// @Param toDueDate query string false "Due date upper bound (exclusive)"
// @Param skip query int false "Offset"
// @Param take query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /todo-list/get-all [get]
func (h *TodoHandler) GetAll(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var filter models.TodoFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid filter parameters"))
		return
	}

	page, err := h.service.ListPagedFiltered(c.Request.Context(), filter, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	filter.Clamp()
	pagination := &models.Pagination{Skip: filter.Skip, Take: filter.Take, TotalCount: page.TotalCount}
	response.JSON(c, http.StatusOK, page.Items, pagination)
}

// All godoc
// @Summary List all owned items
// @Description List every item owned by the caller
// @Tags TodoList
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /todo-list/all [get]
func (h *TodoHandler) All(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	items, err := h.service.ListAll(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, items, nil)
}

// Update godoc
// @Summary Update item
// @Description Overwrite an item's mutable fields
// @Tags TodoList
// @Accept json
// @Produce json
// @Param payload body service.TodoUpdateRequest true "Item payload"
// @Success 204 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /todo-list/update [put]
func (h *TodoHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.TodoUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid item payload"))
		return
	}

	if err := h.service.Update(c.Request.Context(), req, claims.UserID); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// Delete godoc
// @Summary Delete item
// @Description Delete an item by id
// @Tags TodoList
// @Produce json
// @Param id query int true "Item ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /todo-list/delete [delete]
func (h *TodoHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Query("id"), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid item id"))
		return
	}

	if err := h.service.DeleteByID(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// ByDueDate godoc
// @Summary List items by due date
// @Description List all items due on a calendar date, across users
// @Tags TodoList
// @Produce json
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /todo-list/by-due-date [get]
func (h *TodoHandler) ByDueDate(c *gin.Context) {
	date, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid date, expected YYYY-MM-DD"))
		return
	}

	items, err := h.service.ListByDueDate(c.Request.Context(), date)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, items, nil)
}

// Completed godoc
// @Summary List completed items
// @Description Global paginated slice of completed items
// @Tags TodoList
// @Produce json
// @Param skip query int false "Offset"
// @Param take query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /todo-list/completed [get]
func (h *TodoHandler) Completed(c *gin.Context) {
	h.listByCompletion(c, true)
}

// Incomplete godoc
// @Summary List incomplete items
// @Description Global paginated slice of incomplete items
// @Tags TodoList
// @Produce json
// @Param skip query int false "Offset"
// @Param take query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /todo-list/incomplete [get]
func (h *TodoHandler) Incomplete(c *gin.Context) {
	h.listByCompletion(c, false)
}

func (h *TodoHandler) listByCompletion(c *gin.Context, completed bool) {
	skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
	take, _ := strconv.Atoi(c.DefaultQuery("take", strconv.Itoa(models.DefaultTake)))

	var (
		page *models.TodoPage
		hit  bool
		err  error
	)
	if completed {
		page, hit, err = h.service.ListCompleted(c.Request.Context(), skip, take)
	} else {
		page, hit, err = h.service.ListIncomplete(c.Request.Context(), skip, take)
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	middleware.SetCacheHit(c, hit)
	pagination := &models.Pagination{Skip: skip, Take: take, TotalCount: page.TotalCount}
	response.JSON(c, http.StatusOK, page.Items, pagination, middleware.ExtractMeta(c))
}

// TotalCount godoc
// @Summary Total item count
// @Description Global count of all items
// @Tags TodoList
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /todo-list/total-count [get]
func (h *TodoHandler) TotalCount(c *gin.Context) {
	count, err := h.service.TotalCount(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"totalCount": count}, nil)
}

// Export godoc
// @Summary Export items
// @Description Export the caller's items as CSV or PDF
// @Tags TodoList
// @Produce octet-stream
// @Param format query string true "csv or pdf"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Router /todo-list/export [get]
func (h *TodoHandler) Export(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	format := c.DefaultQuery("format", "csv")
	payload, contentType, err := h.service.Export(c.Request.Context(), claims.UserID, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="todo-items.`+format+`"`)
	c.Data(http.StatusOK, contentType, payload)
}
