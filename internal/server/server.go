// Package server implements the HTTP service the remote backend talks to. It
// keeps one registry in memory and saves it to its store after every change.
package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"

	"tors/backend"
	"tors/backend/local"
	"tors/backend/registry"
	"tors/backend/remote"
)

// Server serves tasks, categories and the theme over HTTP
type Server struct {
	mu     sync.Mutex
	store  local.Store
	reg    *registry.Registry
	apiKey string
	log    *log.Logger
	echo   *echo.Echo
}

// New loads the document from store and registers all routes.
func New(store local.Store, apiKey string, logger *log.Logger, opts ...registry.Option) (*Server, error) {
	if apiKey == "" {
		return nil, errors.New("server requires an API key")
	}
	doc, err := store.Load()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.New()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		store:  store,
		reg:    registry.New(doc, opts...),
		apiKey: apiKey,
		log:    logger,
		echo:   e,
	}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{TargetHeader: remote.RequestIDHeader}))
	e.Use(s.logRequests)
	e.Use(s.requireAPIKey)
	s.register(e)
	return s, nil
}

func (s *Server) register(e *echo.Echo) {
	e.GET("/tasks", s.listTasks)
	e.POST("/tasks", s.createTask)
	e.PUT("/tasks/:id", s.updateTask)
	e.DELETE("/tasks/:id", s.deleteTask)
	e.POST("/tasks/:id/assign-category", s.assignCategory)

	e.GET("/categories", s.listCategories)
	e.POST("/categories", s.createCategory)
	e.GET("/categories/:id", s.getCategory)
	e.PUT("/categories/:id", s.updateCategory)
	e.DELETE("/categories/:id", s.deleteCategory)

	e.GET("/theme", s.getTheme)
	e.POST("/theme", s.setTheme)
}

// Handler returns the HTTP handler, mainly for httptest servers
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr until Shutdown is called
func (s *Server) Start(addr string) error {
	s.log.WithField("addr", addr).Info("serving tors API")
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the listener and saves the document one last time.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.echo.Shutdown(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	if saveErr := s.store.Save(s.reg.Document()); saveErr != nil && err == nil {
		err = saveErr
	}
	return err
}

// =============================================================================
// Middleware
// =============================================================================

func (s *Server) requireAPIKey(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		key := c.Request().Header.Get(remote.APIKeyHeader)
		if subtle.ConstantTimeCompare([]byte(key), []byte(s.apiKey)) != 1 {
			return c.String(http.StatusUnauthorized, "invalid api key")
		}
		return next(c)
	}
}

func (s *Server) logRequests(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		err := next(c)
		if err != nil {
			c.Error(err)
		}
		req := c.Request()
		s.log.WithFields(log.Fields{
			"method":     req.Method,
			"path":       req.URL.Path,
			"status":     c.Response().Status,
			"request_id": c.Response().Header().Get(remote.RequestIDHeader),
		}).Debug("request")
		return nil
	}
}

// =============================================================================
// Helpers
// =============================================================================

// mutate runs fn under the lock and saves the document when fn succeeds.
func (s *Server) mutate(fn func(reg *registry.Registry) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := fn(s.reg); err != nil {
		return err
	}
	return s.store.Save(s.reg.Document())
}

func (s *Server) fail(c echo.Context, err error) error {
	switch {
	case errors.Is(err, backend.ErrNotFound):
		return c.String(http.StatusNotFound, err.Error())
	case errors.Is(err, backend.ErrInvalidInput):
		return c.String(http.StatusBadRequest, err.Error())
	}
	s.log.WithError(err).Error("request failed")
	return c.String(http.StatusInternalServerError, err.Error())
}

func pathID(c echo.Context) (int, error) {
	raw := c.Param("id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &backend.InvalidInputError{What: "id", Value: raw}
	}
	return id, nil
}

// =============================================================================
// Task Handlers
// =============================================================================

func (s *Server) listTasks(c echo.Context) error {
	s.mu.Lock()
	tasks := s.reg.Tasks()
	s.mu.Unlock()
	return c.JSON(http.StatusOK, tasks)
}

func (s *Server) createTask(c echo.Context) error {
	var in backend.Task
	if err := c.Bind(&in); err != nil {
		return c.String(http.StatusBadRequest, "invalid task body")
	}
	var created backend.Task
	err := s.mutate(func(reg *registry.Registry) error {
		created = reg.CreateTask(in.Name, in.Description, in.ETA)
		return nil
	})
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (s *Server) updateTask(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return s.fail(c, err)
	}
	var patch remote.TaskPatch
	if err := c.Bind(&patch); err != nil {
		return c.String(http.StatusBadRequest, "invalid task body")
	}

	var updated backend.Task
	err = s.mutate(func(reg *registry.Registry) error {
		t, err := reg.Task(id)
		if err != nil {
			return err
		}
		if !patch.Apply(&t) {
			return &backend.InvalidInputError{What: "field", Value: ""}
		}
		for _, f := range []backend.Field{backend.FieldName, backend.FieldDescription, backend.FieldETA} {
			if err := reg.EditTask(id, f, fieldValue(t, f)); err != nil {
				return err
			}
		}
		updated = t
		return nil
	})
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

func fieldValue(t backend.Task, f backend.Field) string {
	switch f {
	case backend.FieldName:
		return t.Name
	case backend.FieldDescription:
		return t.Description
	}
	return t.ETA
}

func (s *Server) deleteTask(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return s.fail(c, err)
	}
	if err := s.mutate(func(reg *registry.Registry) error { return reg.DeleteTask(id) }); err != nil {
		return s.fail(c, err)
	}
	return c.NoContent(http.StatusOK)
}

// assignCategory stores the category id, not its name, on the task
func (s *Server) assignCategory(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return s.fail(c, err)
	}
	var in remote.AssignRequest
	if err := c.Bind(&in); err != nil {
		return c.String(http.StatusBadRequest, "invalid assignment body")
	}
	err = s.mutate(func(reg *registry.Registry) error {
		if _, err := reg.Category(in.CategoryID); err != nil {
			return err
		}
		ref := strconv.Itoa(in.CategoryID)
		return reg.SetTaskCategory(id, &ref)
	})
	if err != nil {
		return s.fail(c, err)
	}
	return c.NoContent(http.StatusOK)
}

// =============================================================================
// Category Handlers
// =============================================================================

func (s *Server) listCategories(c echo.Context) error {
	s.mu.Lock()
	categories := s.reg.Categories()
	s.mu.Unlock()
	return c.JSON(http.StatusOK, categories)
}

func (s *Server) createCategory(c echo.Context) error {
	var in backend.Category
	if err := c.Bind(&in); err != nil {
		return c.String(http.StatusBadRequest, "invalid category body")
	}
	var created backend.Category
	err := s.mutate(func(reg *registry.Registry) error {
		created = reg.CreateCategory(in.Name)
		return nil
	})
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (s *Server) getCategory(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return s.fail(c, err)
	}
	s.mu.Lock()
	category, err := s.reg.Category(id)
	s.mu.Unlock()
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, category)
}

func (s *Server) updateCategory(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return s.fail(c, err)
	}
	var in backend.Category
	if err := c.Bind(&in); err != nil {
		return c.String(http.StatusBadRequest, "invalid category body")
	}
	if err := s.mutate(func(reg *registry.Registry) error { return reg.EditCategory(id, in.Name) }); err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, backend.Category{ID: id, Name: in.Name})
}

func (s *Server) deleteCategory(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return s.fail(c, err)
	}
	if err := s.mutate(func(reg *registry.Registry) error { return reg.DeleteCategory(id) }); err != nil {
		return s.fail(c, err)
	}
	return c.NoContent(http.StatusOK)
}

// =============================================================================
// Theme Handlers
// =============================================================================

func (s *Server) getTheme(c echo.Context) error {
	s.mu.Lock()
	name := s.reg.Theme()
	s.mu.Unlock()
	return c.JSON(http.StatusOK, remote.ThemeResponse{Theme: name})
}

func (s *Server) setTheme(c echo.Context) error {
	var in remote.ThemeUpdate
	if err := c.Bind(&in); err != nil {
		return c.String(http.StatusBadRequest, "invalid theme body")
	}
	if err := s.mutate(func(reg *registry.Registry) error { return reg.SetTheme(in.NewTheme) }); err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, remote.ThemeResponse{Theme: in.NewTheme})
}
