package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"todos/internal/export"
	"todos/internal/logger"
	"todos/internal/manager"
	"todos/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	msgTitleRequired = "Title is required"
	msgNotFound      = "Todo not found"
	msgDeleted       = "Todo deleted successfully"
)

func NewRouter(tm *manager.TaskManager) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", healthHandler)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/todos", func(r chi.Router) {
		r.Post("/", addTaskHandler(tm))
		r.Get("/", listTasksHandler(tm))
		r.Get("/export", exportTasksHandler(tm))
		r.Put("/{id}", updateTaskHandler(tm))
		r.Delete("/{id}", deleteTaskHandler(tm))
	})

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// POST /todos
func addTaskHandler(tm *manager.TaskManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.CreateTaskRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		task, err := tm.AddTask(r.Context(), req.Title, req.Description)
		if err != nil {
			writeManagerError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, task)
	}
}

// GET /todos
func listTasksHandler(tm *manager.TaskManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tasks, err := tm.GetAllTasks(r.Context())
		if err != nil {
			writeManagerError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, tasks)
	}
}

// PUT /todos/{id}
func updateTaskHandler(tm *manager.TaskManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.UpdateTaskRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		task, err := tm.UpdateTask(r.Context(), chi.URLParam(r, "id"), req)
		if err != nil {
			writeManagerError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, task)
	}
}

// DELETE /todos/{id}
func deleteTaskHandler(tm *manager.TaskManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := tm.DeleteTask(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeManagerError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, models.MessageResponse{Message: msgDeleted})
	}
}

// GET /todos/export?format=json|csv|pdf
func exportTasksHandler(tm *manager.TaskManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		format, err := export.ParseFormat(r.URL.Query().Get("format"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		tasks, err := tm.GetAllTasks(r.Context())
		if err != nil {
			writeManagerError(w, err)
			return
		}

		// Сначала в буфер: ошибка сериализации должна стать 500, а не обрезанным файлом
		var buf bytes.Buffer
		if err := export.Write(&buf, format, tasks); err != nil {
			logger.Error(r.Context(), err, "Ошибка экспорта", "format", format)
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		w.Header().Set("Content-Type", format.ContentType())
		w.Header().Set("Content-Disposition", `attachment; filename="`+format.FileName()+`"`)
		w.WriteHeader(http.StatusOK)
		_, _ = buf.WriteTo(w)
	}
}

// decodeBody: пустое тело равносильно пустому JSON-объекту
func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func writeManagerError(w http.ResponseWriter, err error) {
	var internal *manager.InternalError
	switch {
	case errors.Is(err, manager.ErrValidation):
		writeError(w, http.StatusBadRequest, msgTitleRequired)
	case errors.Is(err, manager.ErrNotFound):
		writeError(w, http.StatusNotFound, msgNotFound)
	case errors.As(err, &internal):
		writeError(w, http.StatusInternalServerError, internal.Err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, models.MessageResponse{Message: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
