package backend

import (
	"context"
	"fmt"
	"sort"
)

// Group labels used when a task has no category.
const (
	LabelUncategorized = "Uncategorized" // local backends
	LabelNoCategory    = "No Category"   // remote backend
	LabelUnknown       = "Unknown"       // remote backend, category lookup failed
)

// Task represents a tracked task
type Task struct {
	ID          int     `yaml:"id" json:"id"`
	Name        string  `yaml:"name" json:"name"`
	Description string  `yaml:"description" json:"description"`
	ETA         string  `yaml:"eta" json:"eta"`
	Category    *string `yaml:"category" json:"category"` // name snapshot (local) or category id (remote); nil when unassigned
}

// HasCategory reports whether a category has been assigned to the task.
func (t Task) HasCategory() bool {
	return t.Category != nil
}

// CategoryOr returns the assigned category value, or fallback when unassigned.
func (t Task) CategoryOr(fallback string) string {
	if t.Category == nil {
		return fallback
	}
	return *t.Category
}

// Category represents a named grouping for tasks
type Category struct {
	ID   int    `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}

// Field names a task attribute that can be edited.
type Field string

const (
	FieldName        Field = "name"
	FieldDescription Field = "description"
	FieldETA         Field = "eta"
)

// ParseField converts user input into a Field. Names match exactly.
func ParseField(s string) (Field, error) {
	switch f := Field(s); f {
	case FieldName, FieldDescription, FieldETA:
		return f, nil
	}
	return "", &InvalidInputError{What: "field", Value: s}
}

// Apply sets the field on the task.
func (f Field) Apply(t *Task, value string) error {
	switch f {
	case FieldName:
		t.Name = value
	case FieldDescription:
		t.Description = value
	case FieldETA:
		t.ETA = value
	default:
		return &InvalidInputError{What: "field", Value: string(f)}
	}
	return nil
}

// Grouped maps a category label to the tasks carrying it, in source order.
type Grouped map[string][]Task

// Labels returns the group labels in sorted order.
func (g Grouped) Labels() []string {
	labels := make([]string, 0, len(g))
	for label := range g {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// Count returns the total number of tasks across all groups.
func (g Grouped) Count() int {
	n := 0
	for _, tasks := range g {
		n += len(tasks)
	}
	return n
}

// GroupTasks groups tasks by the label returned from labelOf, keeping the
// order in which tasks appear in the input.
func GroupTasks(tasks []Task, labelOf func(Task) string) Grouped {
	groups := make(Grouped)
	for _, t := range tasks {
		label := labelOf(t)
		groups[label] = append(groups[label], t)
	}
	return groups
}

// TaskManager defines the operations every storage backend realizes
type TaskManager interface {
	// Task operations
	CreateTask(ctx context.Context, name, description, eta string) (*Task, error)
	EditTask(ctx context.Context, id int, field Field, value string) error
	DeleteTask(ctx context.Context, id int) error
	ListTasksGroupedByCategory(ctx context.Context) (Grouped, error)

	// Category operations
	CreateCategory(ctx context.Context, name string) (*Category, error)
	EditCategory(ctx context.Context, id int, name string) error
	DeleteCategory(ctx context.Context, id int) error
	ListCategories(ctx context.Context) ([]Category, error)

	// AssignCategory stamps the task with the category and returns the
	// label it was assigned, which may be empty when the backend cannot
	// report it.
	AssignCategory(ctx context.Context, taskID, categoryID int) (string, error)

	// Theme operations
	Theme(ctx context.Context) (string, error)
	SetTheme(ctx context.Context, name string) error

	// Close releases the backend. Local backends persist their state here.
	Close() error
}

// FormatID renders an id the way it is shown to users.
func FormatID(id int) string {
	return fmt.Sprintf("[ID%d]", id)
}
