package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"daily-tracker/internal/logger"
	"daily-tracker/internal/model"
	"daily-tracker/internal/service"
)

// TodoHandler serves the todo, template and stats routes.
type TodoHandler struct {
	todos *service.TodoService
	stats *service.StatsService
}

func NewTodoHandler(todos *service.TodoService, stats *service.StatsService) *TodoHandler {
	return &TodoHandler{todos: todos, stats: stats}
}

// CreateTodo handles POST /todos.
func (h *TodoHandler) CreateTodo(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}
	var req CreateTodoRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	res, err := h.todos.Create(r.Context(), owner, req.input())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, res)
}

// ListTodos handles GET /todos?date= or ?year=&month=.
func (h *TodoHandler) ListTodos(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	var q service.ListQuery
	if raw := r.URL.Query().Get("date"); raw != "" {
		d, err := model.ParseDate(raw)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
			return
		}
		q.Date = &d
	} else {
		mq, ok := parseMonthQuery(w, r)
		if !ok {
			return
		}
		q.Year, q.Month = mq.Year, mq.Month
	}

	list, err := h.todos.List(r.Context(), owner, q)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, list)
}

func (h *TodoHandler) GetTodo(w http.ResponseWriter, r *http.Request) {
	owner, id, ok := ownerAndPathID(w, r)
	if !ok {
		return
	}
	inst, err := h.todos.Get(r.Context(), owner, id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, inst)
}

func (h *TodoHandler) UpdateTodo(w http.ResponseWriter, r *http.Request) {
	owner, id, ok := ownerAndPathID(w, r)
	if !ok {
		return
	}
	var req UpdateTodoRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	inst, err := h.todos.Update(r.Context(), owner, id, req.input())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, inst)
}

// ToggleTodo handles PATCH /todos/{id}/toggle.
func (h *TodoHandler) ToggleTodo(w http.ResponseWriter, r *http.Request) {
	owner, id, ok := ownerAndPathID(w, r)
	if !ok {
		return
	}
	res, err := h.todos.Toggle(r.Context(), owner, id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	logger.FromContext(r.Context()).Debug("todo toggled",
		slog.String("todo_id", id.String()),
		slog.Bool("completed", res.IsCompleted))
	respondJSON(w, r, http.StatusOK, res)
}

func (h *TodoHandler) DeleteTodo(w http.ResponseWriter, r *http.Request) {
	owner, id, ok := ownerAndPathID(w, r)
	if !ok {
		return
	}
	if err := h.todos.Delete(r.Context(), owner, id); err != nil {
		respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TodoHandler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}
	templates, err := h.todos.ListTemplates(r.Context(), owner)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, templates)
}

func (h *TodoHandler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	owner, id, ok := ownerAndPathID(w, r)
	if !ok {
		return
	}
	tmpl, err := h.todos.GetTemplate(r.Context(), owner, id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, tmpl)
}

func (h *TodoHandler) UpdateTemplate(w http.ResponseWriter, r *http.Request) {
	owner, id, ok := ownerAndPathID(w, r)
	if !ok {
		return
	}
	var req UpdateTemplateRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	tmpl, err := h.todos.UpdateTemplate(r.Context(), owner, id, req.patch())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, tmpl)
}

func (h *TodoHandler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	owner, id, ok := ownerAndPathID(w, r)
	if !ok {
		return
	}
	if err := h.todos.DeleteTemplate(r.Context(), owner, id); err != nil {
		respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DailyStats handles GET /todos/stats/daily?year=&month=; the current month
// is used when either is missing.
func (h *TodoHandler) DailyStats(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}
	mq, ok := parseMonthQuery(w, r)
	if !ok {
		return
	}
	stats, err := h.stats.Monthly(r.Context(), owner, mq.Year, mq.Month)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, stats)
}

func (h *TodoHandler) WeeklyStats(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}
	stats, err := h.stats.Weekly(r.Context(), owner)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, stats)
}

func (h *TodoHandler) OverviewStats(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}
	stats, err := h.stats.Overview(r.Context(), owner)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, stats)
}

func (h *TodoHandler) GrassStats(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}
	var q grassQuery
	if raw := r.URL.Query().Get("months"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, "Invalid months")
			return
		}
		q.Months = n
	}
	if err := validate.Struct(q); err != nil {
		respondError(w, r, http.StatusBadRequest, validationMessage(err))
		return
	}
	stats, err := h.stats.Grass(r.Context(), owner, q.Months)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, stats)
}

func requireOwner(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	owner, ok := ownerFrom(r.Context())
	if !ok {
		respondError(w, r, http.StatusUnauthorized, "Unauthorized")
		return uuid.Nil, false
	}
	return owner, true
}

func ownerAndPathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "Invalid id format")
		return uuid.Nil, uuid.Nil, false
	}
	return owner, id, true
}

func parseMonthQuery(w http.ResponseWriter, r *http.Request) (monthQuery, bool) {
	var mq monthQuery
	for name, dst := range map[string]*int{"year": &mq.Year, "month": &mq.Month} {
		raw := r.URL.Query().Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, "Invalid "+name)
			return mq, false
		}
		*dst = n
	}
	if err := validate.Struct(mq); err != nil {
		respondError(w, r, http.StatusBadRequest, validationMessage(err))
		return mq, false
	}
	return mq, true
}
