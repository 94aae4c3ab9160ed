// Package registry holds the in-memory collection of tasks, categories and
// the current theme that the local backends load and save.
package registry

import (
	"fmt"
	"strings"

	"tors/backend"
	"tors/internal/theme"
)

// Document is the persisted state of a registry.
type Document struct {
	Tasks      []backend.Task     `yaml:"tasks"`
	Categories []backend.Category `yaml:"categories"`
	Theme      string             `yaml:"theme"`
}

// NewDocument returns an empty document with the default theme.
func NewDocument() *Document {
	return &Document{
		Tasks:      []backend.Task{},
		Categories: []backend.Category{},
		Theme:      theme.Default,
	}
}

// Normalize fills in defaults for fields missing from a loaded document.
func (d *Document) Normalize() {
	if d.Tasks == nil {
		d.Tasks = []backend.Task{}
	}
	if d.Categories == nil {
		d.Categories = []backend.Category{}
	}
	if d.Theme == "" {
		d.Theme = theme.Default
	}
}

// IDPolicy decides the id of a new record from the ids currently stored.
type IDPolicy interface {
	Next(ids []int) int
}

// CountPolicy assigns count+1. After a deletion this can hand out an id
// that a surviving record still holds.
type CountPolicy struct{}

// Next returns len(ids)+1.
func (CountPolicy) Next(ids []int) int {
	return len(ids) + 1
}

// MaxPolicy assigns the highest stored id plus one, so ids stay unique.
type MaxPolicy struct{}

// Next returns max(ids)+1.
func (MaxPolicy) Next(ids []int) int {
	highest := 0
	for _, id := range ids {
		if id > highest {
			highest = id
		}
	}
	return highest + 1
}

// PolicyByName returns the id policy for a config value ("count" or "max").
func PolicyByName(name string) (IDPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "count":
		return CountPolicy{}, nil
	case "max":
		return MaxPolicy{}, nil
	}
	return nil, fmt.Errorf("unknown id policy: %q (must be 'count' or 'max')", name)
}

// Registry applies task and category operations to a Document. It has a
// single owner and is not safe for concurrent use.
type Registry struct {
	doc    *Document
	policy IDPolicy
}

// Option configures a Registry.
type Option func(*Registry)

// WithIDPolicy overrides the default CountPolicy.
func WithIDPolicy(p IDPolicy) Option {
	return func(r *Registry) {
		if p != nil {
			r.policy = p
		}
	}
}

// New wraps doc in a Registry. A nil doc starts empty.
func New(doc *Document, opts ...Option) *Registry {
	if doc == nil {
		doc = NewDocument()
	}
	doc.Normalize()
	r := &Registry{doc: doc, policy: CountPolicy{}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Document returns the underlying document.
func (r *Registry) Document() *Document {
	return r.doc
}

// Tasks returns a copy of the stored tasks in insertion order.
func (r *Registry) Tasks() []backend.Task {
	out := make([]backend.Task, len(r.doc.Tasks))
	copy(out, r.doc.Tasks)
	return out
}

// Categories returns a copy of the stored categories in insertion order.
func (r *Registry) Categories() []backend.Category {
	out := make([]backend.Category, len(r.doc.Categories))
	copy(out, r.doc.Categories)
	return out
}

// Theme returns the stored theme name.
func (r *Registry) Theme() string {
	return r.doc.Theme
}

// CreateTask appends a new task and returns it.
func (r *Registry) CreateTask(name, description, eta string) backend.Task {
	ids := make([]int, len(r.doc.Tasks))
	for i, t := range r.doc.Tasks {
		ids[i] = t.ID
	}
	task := backend.Task{
		ID:          r.policy.Next(ids),
		Name:        name,
		Description: description,
		ETA:         eta,
	}
	r.doc.Tasks = append(r.doc.Tasks, task)
	return task
}

// CreateCategory appends a new category and returns it.
func (r *Registry) CreateCategory(name string) backend.Category {
	ids := make([]int, len(r.doc.Categories))
	for i, c := range r.doc.Categories {
		ids[i] = c.ID
	}
	category := backend.Category{ID: r.policy.Next(ids), Name: name}
	r.doc.Categories = append(r.doc.Categories, category)
	return category
}

// findTask returns the first task with the id. With duplicate ids only the
// first match is reachable.
func (r *Registry) findTask(id int) *backend.Task {
	for i := range r.doc.Tasks {
		if r.doc.Tasks[i].ID == id {
			return &r.doc.Tasks[i]
		}
	}
	return nil
}

func (r *Registry) findCategory(id int) *backend.Category {
	for i := range r.doc.Categories {
		if r.doc.Categories[i].ID == id {
			return &r.doc.Categories[i]
		}
	}
	return nil
}

// Task returns a copy of the task with the id.
func (r *Registry) Task(id int) (backend.Task, error) {
	t := r.findTask(id)
	if t == nil {
		return backend.Task{}, &backend.NotFoundError{Kind: "task", ID: id}
	}
	return *t, nil
}

// Category returns a copy of the category with the id.
func (r *Registry) Category(id int) (backend.Category, error) {
	c := r.findCategory(id)
	if c == nil {
		return backend.Category{}, &backend.NotFoundError{Kind: "category", ID: id}
	}
	return *c, nil
}

// EditTask sets one field of a task. The task is checked before the field.
func (r *Registry) EditTask(id int, field backend.Field, value string) error {
	t := r.findTask(id)
	if t == nil {
		return &backend.NotFoundError{Kind: "task", ID: id}
	}
	return field.Apply(t, value)
}

// EditCategory renames a category. Tasks keep the name they were stamped with.
func (r *Registry) EditCategory(id int, name string) error {
	c := r.findCategory(id)
	if c == nil {
		return &backend.NotFoundError{Kind: "category", ID: id}
	}
	c.Name = name
	return nil
}

// DeleteTask removes every task with the id.
func (r *Registry) DeleteTask(id int) error {
	if r.findTask(id) == nil {
		return &backend.NotFoundError{Kind: "task", ID: id}
	}
	kept := r.doc.Tasks[:0]
	for _, t := range r.doc.Tasks {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	r.doc.Tasks = kept
	return nil
}

// DeleteCategory removes every category with the id. Tasks stamped with its
// name are left as they are.
func (r *Registry) DeleteCategory(id int) error {
	if r.findCategory(id) == nil {
		return &backend.NotFoundError{Kind: "category", ID: id}
	}
	kept := r.doc.Categories[:0]
	for _, c := range r.doc.Categories {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	r.doc.Categories = kept
	return nil
}

// AssignCategory stamps the task with the category's current name. The
// category is resolved first: an unknown category leaves the task untouched
// even when the task id is also unknown.
func (r *Registry) AssignCategory(taskID, categoryID int) (string, error) {
	c := r.findCategory(categoryID)
	if c == nil {
		return "", &backend.NotFoundError{Kind: "category", ID: categoryID}
	}
	name := c.Name
	return name, r.SetTaskCategory(taskID, &name)
}

// SetTaskCategory stores value as the task's category reference verbatim.
func (r *Registry) SetTaskCategory(taskID int, value *string) error {
	t := r.findTask(taskID)
	if t == nil {
		return &backend.NotFoundError{Kind: "task", ID: taskID}
	}
	if value == nil {
		t.Category = nil
		return nil
	}
	v := *value
	t.Category = &v
	return nil
}

// ListTasksGroupedByCategory groups tasks by their category value, using
// label for tasks without one.
func (r *Registry) ListTasksGroupedByCategory(label string) backend.Grouped {
	return backend.GroupTasks(r.doc.Tasks, func(t backend.Task) string {
		return t.CategoryOr(label)
	})
}

// SetTheme changes the stored theme. Unknown names leave it unchanged.
func (r *Registry) SetTheme(name string) error {
	if err := theme.Validate(name); err != nil {
		return err
	}
	r.doc.Theme = name
	return nil
}
