package local

import (
	"context"
	"errors"
	"testing"

	"tors/backend"
	"tors/backend/registry"
)

// memStore keeps the document in memory and counts saves.
type memStore struct {
	doc     *registry.Document
	loadErr error
	saveErr error
	saves   int
}

func (m *memStore) Load() (*registry.Document, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.doc == nil {
		return registry.NewDocument(), nil
	}
	return m.doc, nil
}

func (m *memStore) Save(doc *registry.Document) error {
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.doc = doc
	return nil
}

func (m *memStore) Location() string { return "memory" }

func TestCloseSavesOnce(t *testing.T) {
	store := &memStore{}
	b, err := Open(store)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if store.saves != 1 {
		t.Errorf("expected one save, got %d", store.saves)
	}
	if store.doc.Theme != "Desert" {
		t.Errorf("expected default theme saved, got %q", store.doc.Theme)
	}
}

func TestOpenFailureIsReturned(t *testing.T) {
	loadErr := &backend.PersistenceError{Op: "parse", Path: "memory", Err: errors.New("bad yaml")}
	if _, err := Open(&memStore{loadErr: loadErr}); !backend.IsFatal(err) {
		t.Errorf("expected persistence failure, got %v", err)
	}
}

func TestCloseReportsSaveFailure(t *testing.T) {
	saveErr := &backend.PersistenceError{Op: "write", Path: "memory", Err: errors.New("disk full")}
	b, _ := Open(&memStore{saveErr: saveErr})
	if err := b.Close(); !errors.Is(err, backend.ErrPersistence) {
		t.Errorf("expected persistence failure, got %v", err)
	}
}

func TestOperationsDelegateToRegistry(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	b, _ := Open(store, registry.WithIDPolicy(registry.MaxPolicy{}))

	task, _ := b.CreateTask(ctx, "a", "b", "c")
	category, _ := b.CreateCategory(ctx, "Home")

	label, err := b.AssignCategory(ctx, task.ID, category.ID)
	if err != nil || label != "Home" {
		t.Fatalf("AssignCategory = %q, %v", label, err)
	}

	groups, _ := b.ListTasksGroupedByCategory(ctx)
	if len(groups["Home"]) != 1 {
		t.Errorf("expected task under Home, got %+v", groups)
	}

	if err := b.DeleteTask(ctx, task.ID); err != nil {
		t.Fatal(err)
	}
	groups, _ = b.ListTasksGroupedByCategory(ctx)
	if groups.Count() != 0 {
		t.Errorf("expected no tasks, got %+v", groups)
	}

	if err := b.EditTask(ctx, 7, backend.FieldName, "x"); !errors.Is(err, backend.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
	if err := b.SetTheme(ctx, "Forest"); err != nil {
		t.Fatal(err)
	}
	if name, _ := b.Theme(ctx); name != "Forest" {
		t.Errorf("expected Forest, got %q", name)
	}

	if b.Registry() == nil {
		t.Error("expected registry")
	}
}
