package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	log "github.com/sirupsen/logrus"

	"tors/backend"
	"tors/backend/file"
	"tors/backend/remote"
)

const testKey = "test-key"

// setup starts a server over a YAML store and returns a remote backend
// pointed at it together with the store path.
func setup(t *testing.T) (*remote.Backend, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "server.yaml")
	store, err := file.NewStore(path)
	if err != nil {
		t.Fatal(err)
	}
	logger := log.New()
	logger.SetOutput(io.Discard)

	s, err := New(store, testKey, logger)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	b, err := remote.New(remote.Config{BaseURL: srv.URL, APIKey: testKey})
	if err != nil {
		t.Fatal(err)
	}
	return b, path
}

func TestNewRequiresAPIKey(t *testing.T) {
	store, _ := file.NewStore(filepath.Join(t.TempDir(), "s.yaml"))
	if _, err := New(store, "", nil); err == nil {
		t.Error("expected error without API key")
	}
}

func TestRejectsWrongAPIKey(t *testing.T) {
	store, _ := file.NewStore(filepath.Join(t.TempDir(), "s.yaml"))
	s, err := New(store, testKey, nil)
	if err != nil {
		t.Fatal(err)
	}

	for _, key := range []string{"", "wrong"} {
		req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
		if key != "" {
			req.Header.Set(remote.APIKeyHeader, key)
		}
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("key %q: expected 401, got %d", key, rec.Code)
		}
	}
}

func TestEchoesRequestID(t *testing.T) {
	store, _ := file.NewStore(filepath.Join(t.TempDir(), "s.yaml"))
	s, _ := New(store, testKey, nil)

	req := httptest.NewRequest(http.MethodGet, "/theme", nil)
	req.Header.Set(remote.APIKeyHeader, testKey)
	req.Header.Set(remote.RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get(remote.RequestIDHeader); got != "abc-123" {
		t.Errorf("expected request id echoed, got %q", got)
	}
	if !strings.Contains(rec.Body.String(), `"theme":"Desert"`) {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestTaskLifecycleOverHTTP(t *testing.T) {
	b, _ := setup(t)
	ctx := context.Background()

	task, err := b.CreateTask(ctx, "write", "the report", "friday")
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if task.ID != 1 {
		t.Errorf("expected id 1, got %d", task.ID)
	}

	if err := b.EditTask(ctx, task.ID, backend.FieldDescription, "the summary"); err != nil {
		t.Fatalf("EditTask: %v", err)
	}

	groups, err := b.ListTasksGroupedByCategory(ctx)
	if err != nil {
		t.Fatalf("ListTasksGroupedByCategory: %v", err)
	}
	got := groups[backend.LabelNoCategory]
	if len(got) != 1 || got[0].Description != "the summary" || got[0].Name != "write" {
		t.Errorf("unexpected groups %+v", groups)
	}

	if err := b.DeleteTask(ctx, task.ID); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	if err := b.DeleteTask(ctx, task.ID); !errors.Is(err, backend.ErrRemoteFailure) {
		t.Errorf("expected remote failure on second delete, got %v", err)
	}
}

func TestAssignCategoryStoresID(t *testing.T) {
	b, path := setup(t)
	ctx := context.Background()

	task, _ := b.CreateTask(ctx, "a", "", "")
	category, err := b.CreateCategory(ctx, "Home")
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}

	if _, err := b.AssignCategory(ctx, task.ID, 42); !errors.Is(err, backend.ErrRemoteFailure) {
		t.Errorf("expected failure for unknown category, got %v", err)
	}
	if _, err := b.AssignCategory(ctx, task.ID, category.ID); err != nil {
		t.Fatalf("AssignCategory: %v", err)
	}

	// Renames show up because the task stores the id
	if err := b.EditCategory(ctx, category.ID, "House"); err != nil {
		t.Fatalf("EditCategory: %v", err)
	}
	groups, _ := b.ListTasksGroupedByCategory(ctx)
	if len(groups["House"]) != 1 {
		t.Errorf("expected task under House, got %+v", groups)
	}

	// Deleting the category leaves a dangling reference
	if err := b.DeleteCategory(ctx, category.ID); err != nil {
		t.Fatalf("DeleteCategory: %v", err)
	}
	groups, _ = b.ListTasksGroupedByCategory(ctx)
	if len(groups[backend.LabelUnknown]) != 1 {
		t.Errorf("expected task under %s, got %+v", backend.LabelUnknown, groups)
	}

	store, _ := file.NewStore(path)
	doc, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if doc.Tasks[0].Category == nil || *doc.Tasks[0].Category != "1" {
		t.Errorf("expected stored category id 1, got %v", doc.Tasks[0].Category)
	}
}

func TestThemeOverHTTP(t *testing.T) {
	b, path := setup(t)
	ctx := context.Background()

	if err := b.SetTheme(ctx, "Snow"); err != nil {
		t.Fatalf("SetTheme: %v", err)
	}
	name, err := b.Theme(ctx)
	if err != nil {
		t.Fatalf("Theme: %v", err)
	}
	if name != "Snow" {
		t.Errorf("expected Snow, got %q", name)
	}

	store, _ := file.NewStore(path)
	doc, _ := store.Load()
	if doc.Theme != "Snow" {
		t.Errorf("expected saved theme Snow, got %q", doc.Theme)
	}
}

func TestInvalidThemeIsBadRequest(t *testing.T) {
	store, _ := file.NewStore(filepath.Join(t.TempDir(), "s.yaml"))
	s, _ := New(store, testKey, nil)

	req := httptest.NewRequest(http.MethodPost, "/theme", strings.NewReader(`{"newTheme":"desert"}`))
	req.Header.Set(remote.APIKeyHeader, testKey)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestGetCategory(t *testing.T) {
	b, _ := setup(t)
	ctx := context.Background()

	if _, err := b.GetCategory(ctx, 1); !errors.Is(err, backend.ErrRemoteFailure) {
		t.Errorf("expected failure for missing category, got %v", err)
	}
	created, _ := b.CreateCategory(ctx, "Work")
	got, err := b.GetCategory(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetCategory: %v", err)
	}
	if got.Name != "Work" {
		t.Errorf("expected Work, got %q", got.Name)
	}

	all, err := b.ListCategories(ctx)
	if err != nil || len(all) != 1 {
		t.Errorf("expected one category, got %v, %v", all, err)
	}
}

func TestShutdownSaves(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.yaml")
	store, _ := file.NewStore(path)
	s, err := New(store, testKey, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	doc, err := store.Load()
	if err != nil || doc.Theme != "Desert" {
		t.Errorf("expected saved default document, got %+v, %v", doc, err)
	}
}
