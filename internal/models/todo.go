package models

import "time"

// TodoItem represents a to-do entry stored in the todo_items table.
// CreatedAt is set once on insert and never overwritten by updates.
type TodoItem struct {
	ID          int64     `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	IsCompleted bool      `db:"is_completed" json:"isCompleted"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	DueDate     time.Time `db:"due_date" json:"dueDate"`
	UserID      int64     `db:"user_id" json:"userId"`
}

// Listing page size bounds. Out-of-range values are clamped, not rejected.
const (
	DefaultTake = 10
	MaxTake     = 20
)

// TodoFilter captures the optional predicates and paging window for listing
// items. Absent fields mean "no constraint"; all predicates AND-combine.
type TodoFilter struct {
	Search      string     `form:"search"`
	IsCompleted *bool      `form:"isCompleted"`
	FromDueDate *time.Time `form:"fromDueDate" time_format:"2006-01-02"`
	ToDueDate   *time.Time `form:"toDueDate" time_format:"2006-01-02"`
	Skip        int        `form:"skip"`
	Take        int        `form:"take"`
}

// Clamp normalises the paging window in place: negative skip becomes 0 and a
// take outside (0, MaxTake] falls back to DefaultTake.
func (f *TodoFilter) Clamp() {
	if f.Skip < 0 {
		f.Skip = 0
	}
	if f.Take <= 0 || f.Take > MaxTake {
		f.Take = DefaultTake
	}
}

// TodoPage bundles one page of items with a total count. For the owner-scoped
// filtered listing the total is the owner's unfiltered item count; for the
// global listings it is the global item count.
type TodoPage struct {
	Items      []TodoItem `json:"items"`
	TotalCount int        `json:"totalCount"`
}
