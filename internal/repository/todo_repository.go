package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/todo-list-api/internal/models"
)

// TodoRepository provides database access for to-do items.
type TodoRepository struct {
	db *sqlx.DB
}

// NewTodoRepository creates a new instance of TodoRepository.
func NewTodoRepository(db *sqlx.DB) *TodoRepository {
	return &TodoRepository{db: db}
}

const todoColumns = `id, title, description, is_completed, created_at, due_date, user_id`

// Insert persists a new item and returns the generated identifier.
func (r *TodoRepository) Insert(ctx context.Context, item *models.TodoItem) (int64, error) {
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO todo_items (title, description, is_completed, created_at, due_date, user_id)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	var id int64
	if err := r.db.QueryRowContext(ctx, query,
		item.Title, item.Description, item.IsCompleted, item.CreatedAt, item.DueDate, item.UserID,
	).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert todo item: %w", err)
	}
	item.ID = id
	return id, nil
}

// FindByID returns an item by identifier.
func (r *TodoRepository) FindByID(ctx context.Context, id int64) (*models.TodoItem, error) {
	query := `SELECT ` + todoColumns + ` FROM todo_items WHERE id = $1 LIMIT 1`
	var item models.TodoItem
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find todo item by id: %w", err)
	}
	return &item, nil
}

// Update overwrites the mutable fields of an item. created_at is immutable
// and deliberately excluded.
func (r *TodoRepository) Update(ctx context.Context, item *models.TodoItem) error {
	const query = `UPDATE todo_items SET title = :title, description = :description,
		is_completed = :is_completed, due_date = :due_date, user_id = :user_id WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("update todo item: %w", err)
	}
	return nil
}

// Delete removes an item row.
func (r *TodoRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM todo_items WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete todo item: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// List returns one page of items matching the filter predicates. Predicates
// are purely additive; the filter is expected to be clamped by the caller.
func (r *TodoRepository) List(ctx context.Context, filter models.TodoFilter) ([]models.TodoItem, error) {
	baseQuery := `FROM todo_items WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("title LIKE $%d", len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.IsCompleted != nil {
		conditions = append(conditions, fmt.Sprintf("is_completed = $%d", len(args)+1))
		args = append(args, *filter.IsCompleted)
	}
	if filter.FromDueDate != nil {
		conditions = append(conditions, fmt.Sprintf("due_date > $%d", len(args)+1))
		args = append(args, *filter.FromDueDate)
	}
	if filter.ToDueDate != nil {
		conditions = append(conditions, fmt.Sprintf("due_date < $%d", len(args)+1))
		args = append(args, *filter.ToDueDate)
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY id ASC LIMIT %d OFFSET %d",
		todoColumns, baseQuery, filter.Take, filter.Skip)

	var items []models.TodoItem
	if err := r.db.SelectContext(ctx, &items, listQuery, args...); err != nil {
		return nil, fmt.Errorf("list todo items: %w", err)
	}
	return items, nil
}

// ListByUser returns all items owned by the given user.
func (r *TodoRepository) ListByUser(ctx context.Context, userID int64) ([]models.TodoItem, error) {
	query := `SELECT ` + todoColumns + ` FROM todo_items WHERE user_id = $1 ORDER BY id ASC`
	var items []models.TodoItem
	if err := r.db.SelectContext(ctx, &items, query, userID); err != nil {
		return nil, fmt.Errorf("list todo items by user: %w", err)
	}
	return items, nil
}

// ListByDueDate returns all items due on the given calendar date.
func (r *TodoRepository) ListByDueDate(ctx context.Context, date time.Time) ([]models.TodoItem, error) {
	query := `SELECT ` + todoColumns + ` FROM todo_items WHERE DATE(due_date) = DATE($1) ORDER BY id ASC`
	var items []models.TodoItem
	if err := r.db.SelectContext(ctx, &items, query, date); err != nil {
		return nil, fmt.Errorf("list todo items by due date: %w", err)
	}
	return items, nil
}

// ListByCompletion returns one global page of items with the given completion
// flag.
func (r *TodoRepository) ListByCompletion(ctx context.Context, completed bool, skip, take int) ([]models.TodoItem, error) {
	query := fmt.Sprintf("SELECT %s FROM todo_items WHERE is_completed = $1 ORDER BY id ASC LIMIT %d OFFSET %d",
		todoColumns, take, skip)
	var items []models.TodoItem
	if err := r.db.SelectContext(ctx, &items, query, completed); err != nil {
		return nil, fmt.Errorf("list todo items by completion: %w", err)
	}
	return items, nil
}

// CountByUser returns the owner's total item count, ignoring any filters.
func (r *TodoRepository) CountByUser(ctx context.Context, userID int64) (int, error) {
	const query = `SELECT COUNT(*) FROM todo_items WHERE user_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, userID); err != nil {
		return 0, fmt.Errorf("count todo items by user: %w", err)
	}
	return count, nil
}

// Count returns the global item count.
func (r *TodoRepository) Count(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM todo_items`
	var count int
	if err := r.db.GetContext(ctx, &count, query); err != nil {
		return 0, fmt.Errorf("count todo items: %w", err)
	}
	return count, nil
}
