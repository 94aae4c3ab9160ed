// Package local implements backend.TaskManager on top of an in-memory
// registry that is loaded once from a document store and saved once on Close.
package local

import (
	"context"

	"tors/backend"
	"tors/backend/registry"
	"tors/internal/utils"
)

// Store loads and saves the whole registry document.
type Store interface {
	Load() (*registry.Document, error)
	Save(doc *registry.Document) error
	Location() string
}

// Backend implements backend.TaskManager for local document stores
type Backend struct {
	store  Store
	reg    *registry.Registry
	closed bool
}

// Open loads the document from store. Load failures are persistence
// failures and leave no backend to save.
func Open(store Store, opts ...registry.Option) (*Backend, error) {
	doc, err := store.Load()
	if err != nil {
		return nil, err
	}
	utils.Debugf("loaded %d tasks and %d categories from %s", len(doc.Tasks), len(doc.Categories), store.Location())
	return &Backend{
		store: store,
		reg:   registry.New(doc, opts...),
	}, nil
}

// Registry exposes the loaded registry.
func (b *Backend) Registry() *registry.Registry {
	return b.reg
}

// Close saves the document. It saves even when no operation changed state,
// and only the first call writes.
func (b *Backend) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	if err := b.store.Save(b.reg.Document()); err != nil {
		return err
	}
	utils.Debugf("saved state to %s", b.store.Location())
	return nil
}

// CreateTask adds a task with an id from the registry's id policy
func (b *Backend) CreateTask(ctx context.Context, name, description, eta string) (*backend.Task, error) {
	t := b.reg.CreateTask(name, description, eta)
	return &t, nil
}

// EditTask sets one field of a task
func (b *Backend) EditTask(ctx context.Context, id int, field backend.Field, value string) error {
	return b.reg.EditTask(id, field, value)
}

// DeleteTask removes a task
func (b *Backend) DeleteTask(ctx context.Context, id int) error {
	return b.reg.DeleteTask(id)
}

// ListTasksGroupedByCategory groups tasks under their category name, or
// "Uncategorized"
func (b *Backend) ListTasksGroupedByCategory(ctx context.Context) (backend.Grouped, error) {
	return b.reg.ListTasksGroupedByCategory(backend.LabelUncategorized), nil
}

// CreateCategory adds a category
func (b *Backend) CreateCategory(ctx context.Context, name string) (*backend.Category, error) {
	c := b.reg.CreateCategory(name)
	return &c, nil
}

// EditCategory renames a category
func (b *Backend) EditCategory(ctx context.Context, id int, name string) error {
	return b.reg.EditCategory(id, name)
}

// DeleteCategory removes a category
func (b *Backend) DeleteCategory(ctx context.Context, id int) error {
	return b.reg.DeleteCategory(id)
}

// ListCategories returns all categories
func (b *Backend) ListCategories(ctx context.Context) ([]backend.Category, error) {
	return b.reg.Categories(), nil
}

// AssignCategory stamps a task with a category name
func (b *Backend) AssignCategory(ctx context.Context, taskID, categoryID int) (string, error) {
	return b.reg.AssignCategory(taskID, categoryID)
}

// Theme returns the stored theme
func (b *Backend) Theme(ctx context.Context) (string, error) {
	return b.reg.Theme(), nil
}

// SetTheme changes the stored theme
func (b *Backend) SetTheme(ctx context.Context, name string) error {
	return b.reg.SetTheme(name)
}

// Verify interface compliance at compile time
var _ backend.TaskManager = (*Backend)(nil)
