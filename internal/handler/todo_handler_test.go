package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/todo-list-api/internal/middleware"
	"github.com/noah-isme/todo-list-api/internal/models"
	"github.com/noah-isme/todo-list-api/internal/service"
	appErrors "github.com/noah-isme/todo-list-api/pkg/errors"
	"github.com/noah-isme/todo-list-api/pkg/response"
)

type todoServiceMock struct {
	addID      int64
	addErr     error
	item       *models.TodoItem
	itemErr    error
	page       *models.TodoPage
	pageErr    error
	items      []models.TodoItem
	updateErr  error
	deleteErr  error
	count      int
	exportBody []byte
	exportType string
	exportErr  error

	lastFilter  models.TodoFilter
	lastOwnerID int64
	lastSkip    int
	lastTake    int
	cacheHit    bool
}

func (m *todoServiceMock) Add(ctx context.Context, req service.TodoCreateRequest, ownerID int64) (int64, error) {
	m.lastOwnerID = ownerID
	return m.addID, m.addErr
}

func (m *todoServiceMock) GetByID(ctx context.Context, id int64) (*models.TodoItem, error) {
	return m.item, m.itemErr
}

func (m *todoServiceMock) Update(ctx context.Context, req service.TodoUpdateRequest, ownerID int64) error {
	m.lastOwnerID = ownerID
	return m.updateErr
}

func (m *todoServiceMock) DeleteByID(ctx context.Context, id int64) error {
	return m.deleteErr
}

func (m *todoServiceMock) ListPagedFiltered(ctx context.Context, filter models.TodoFilter, ownerID int64) (*models.TodoPage, error) {
	m.lastFilter = filter
	m.lastOwnerID = ownerID
	return m.page, m.pageErr
}

func (m *todoServiceMock) ListAll(ctx context.Context, ownerID int64) ([]models.TodoItem, error) {
	m.lastOwnerID = ownerID
	return m.items, nil
}

func (m *todoServiceMock) ListByDueDate(ctx context.Context, date time.Time) ([]models.TodoItem, error) {
	return m.items, nil
}

func (m *todoServiceMock) ListCompleted(ctx context.Context, skip, take int) (*models.TodoPage, bool, error) {
	m.lastSkip = skip
	m.lastTake = take
	return m.page, m.cacheHit, m.pageErr
}

func (m *todoServiceMock) ListIncomplete(ctx context.Context, skip, take int) (*models.TodoPage, bool, error) {
	m.lastSkip = skip
	m.lastTake = take
	return m.page, m.cacheHit, m.pageErr
}

func (m *todoServiceMock) TotalCount(ctx context.Context) (int, error) {
	return m.count, nil
}

func (m *todoServiceMock) Export(ctx context.Context, ownerID int64, format string) ([]byte, string, error) {
	m.lastOwnerID = ownerID
	if m.exportErr != nil {
		return nil, "", m.exportErr
	}
	return m.exportBody, m.exportType, nil
}

func todoRequest(t *testing.T, method, target string, body interface{}, claims *models.JWTClaims) (*httptest.ResponseRecorder, *gin.Context) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, target, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	return w, c
}

func userClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: 4, Username: "alice", Role: models.RoleUser}
}

func TestTodoHandlerAdd(t *testing.T) {
	mockSvc := &todoServiceMock{addID: 11}
	handler := NewTodoHandler(mockSvc)

	w, c := todoRequest(t, http.MethodPost, "/api/todo-list/add", service.TodoCreateRequest{
		Title:   "buy milk",
		DueDate: time.Now().Add(24 * time.Hour),
	}, userClaims())
	handler.Add(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(4), mockSvc.lastOwnerID)
	assert.Contains(t, w.Body.String(), `"id":11`)
}

func TestTodoHandlerAddWithoutClaims(t *testing.T) {
	handler := NewTodoHandler(&todoServiceMock{})

	w, c := todoRequest(t, http.MethodPost, "/api/todo-list/add", service.TodoCreateRequest{}, nil)
	handler.Add(c)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTodoHandlerGetInvalidID(t *testing.T) {
	handler := NewTodoHandler(&todoServiceMock{})

	w, c := todoRequest(t, http.MethodGet, "/api/todo-list/get/abc", nil, userClaims())
	c.Params = gin.Params{{Key: "id", Value: "abc"}}
	handler.Get(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTodoHandlerGetMissing(t *testing.T) {
	mockSvc := &todoServiceMock{itemErr: appErrors.Clone(appErrors.ErrNotFound, "item with id 99 not found")}
	handler := NewTodoHandler(mockSvc)

	w, c := todoRequest(t, http.MethodGet, "/api/todo-list/get/99", nil, userClaims())
	c.Params = gin.Params{{Key: "id", Value: "99"}}
	handler.Get(c)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestTodoHandlerGetAll(t *testing.T) {
	mockSvc := &todoServiceMock{page: &models.TodoPage{
		Items:      []models.TodoItem{{ID: 1, Title: "buy milk", UserID: 4}},
		TotalCount: 25,
	}}
	handler := NewTodoHandler(mockSvc)

	w, c := todoRequest(t, http.MethodGet, "/api/todo-list/get-all?search=milk&skip=-5&take=500", nil, userClaims())
	handler.GetAll(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "milk", mockSvc.lastFilter.Search)
	assert.Equal(t, int64(4), mockSvc.lastOwnerID)

	var env response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.NotNil(t, env.Pagination)
	assert.Equal(t, 0, env.Pagination.Skip)
	assert.Equal(t, models.DefaultTake, env.Pagination.Take)
	assert.Equal(t, 25, env.Pagination.TotalCount)
}

func TestTodoHandlerUpdate(t *testing.T) {
	handler := NewTodoHandler(&todoServiceMock{})

	w, c := todoRequest(t, http.MethodPut, "/api/todo-list/update", service.TodoUpdateRequest{
		ID:      11,
		Title:   "buy oat milk",
		DueDate: time.Now().Add(24 * time.Hour),
	}, userClaims())
	handler.Update(c)
	c.Writer.WriteHeaderNow()

	require.Equal(t, http.StatusNoContent, w.Code)
}

func TestTodoHandlerDeleteInvalidID(t *testing.T) {
	handler := NewTodoHandler(&todoServiceMock{})

	w, c := todoRequest(t, http.MethodDelete, "/api/todo-list/delete?id=abc", nil, userClaims())
	handler.Delete(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTodoHandlerDeleteMissing(t *testing.T) {
	mockSvc := &todoServiceMock{deleteErr: appErrors.Clone(appErrors.ErrNotFound, "item with id 99 not found")}
	handler := NewTodoHandler(mockSvc)

	w, c := todoRequest(t, http.MethodDelete, "/api/todo-list/delete?id=99", nil, userClaims())
	handler.Delete(c)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestTodoHandlerByDueDateInvalidDate(t *testing.T) {
	handler := NewTodoHandler(&todoServiceMock{})

	w, c := todoRequest(t, http.MethodGet, "/api/todo-list/by-due-date?date=15-03-2026", nil, userClaims())
	handler.ByDueDate(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTodoHandlerCompletedDefaultsPaging(t *testing.T) {
	mockSvc := &todoServiceMock{page: &models.TodoPage{TotalCount: 3}, cacheHit: true}
	handler := NewTodoHandler(mockSvc)

	w, c := todoRequest(t, http.MethodGet, "/api/todo-list/completed", nil, userClaims())
	handler.Completed(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, mockSvc.lastSkip)
	assert.Equal(t, models.DefaultTake, mockSvc.lastTake)
}

func TestTodoHandlerTotalCount(t *testing.T) {
	handler := NewTodoHandler(&todoServiceMock{count: 9})

	w, c := todoRequest(t, http.MethodGet, "/api/todo-list/total-count", nil, userClaims())
	handler.TotalCount(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"totalCount":9`)
}

func TestTodoHandlerExport(t *testing.T) {
	mockSvc := &todoServiceMock{exportBody: []byte("id,title\n"), exportType: "text/csv"}
	handler := NewTodoHandler(mockSvc)

	w, c := todoRequest(t, http.MethodGet, "/api/todo-list/export?format=csv", nil, userClaims())
	handler.Export(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "todo-items.csv")
}

func TestTodoHandlerExportUnknownFormat(t *testing.T) {
	mockSvc := &todoServiceMock{exportErr: appErrors.Clone(appErrors.ErrValidation, `unsupported export format "xlsx"`)}
	handler := NewTodoHandler(mockSvc)

	w, c := todoRequest(t, http.MethodGet, "/api/todo-list/export?format=xlsx", nil, userClaims())
	handler.Export(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}
