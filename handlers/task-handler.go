package handlers

import (
	"net/http"
	"time"

	"github.com/BadissRH/easypm/services"
)

const dateLayout = "2006-01-02"

type TaskHandler struct {
	Service *services.TaskService
}

func NewTaskHandler(service *services.TaskService) *TaskHandler {
	return &TaskHandler{Service: service}
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOf(w, r)
	if !ok {
		return
	}
	projectID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in services.CreateTaskInput
	if !decodeJSON(w, r, &in) {
		return
	}

	task, err := h.Service.Create(r.Context(), auth, projectID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (h *TaskHandler) ListProjectTasks(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOf(w, r)
	if !ok {
		return
	}
	projectID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	tasks, err := h.Service.ListByProject(r.Context(), auth, projectID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) ListMyTasks(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOf(w, r)
	if !ok {
		return
	}
	tasks, err := h.Service.ListMine(r.Context(), auth)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

// ListTasksByAssignee serves GET /api/tasks?assignee=<id>.
func (h *TaskHandler) ListTasksByAssignee(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOf(w, r)
	if !ok {
		return
	}
	assignee, err := services.ParseID("assignee", r.URL.Query().Get("assignee"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	tasks, err := h.Service.ListByAssignee(r.Context(), auth, assignee)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

// ListDueTasks serves GET /api/tasks/due?from=YYYY-MM-DD&to=YYYY-MM-DD. Both days are
// inclusive.
func (h *TaskHandler) ListDueTasks(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOf(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	from, err := time.Parse(dateLayout, query.Get("from"))
	if err != nil {
		badRequest(w, "from must be a date in YYYY-MM-DD format")
		return
	}
	to, err := time.Parse(dateLayout, query.Get("to"))
	if err != nil {
		badRequest(w, "to must be a date in YYYY-MM-DD format")
		return
	}

	tasks, err := h.Service.ListDue(r.Context(), auth, from, to.Add(24*time.Hour-time.Nanosecond))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOf(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	task, err := h.Service.Get(r.Context(), auth, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOf(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in services.UpdateTaskInput
	if !decodeJSON(w, r, &in) {
		return
	}
	task, err := h.Service.Update(r.Context(), auth, id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOf(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.Service.Delete(r.Context(), auth, id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TaskHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOf(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in services.CommentInput
	if !decodeJSON(w, r, &in) {
		return
	}
	comment, err := h.Service.AddComment(r.Context(), auth, id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

func (h *TaskHandler) AddAttachment(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOf(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in services.AttachmentInput
	if !decodeJSON(w, r, &in) {
		return
	}
	attachment, err := h.Service.AddAttachment(r.Context(), auth, id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, attachment)
}
