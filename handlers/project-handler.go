package handlers

import (
	"net/http"

	"github.com/BadissRH/easypm/services"
)

type ProjectHandler struct {
	Service  *services.ProjectService
	Activity *services.ActivityService
	Reports  *services.ReportService
}

func NewProjectHandler(service *services.ProjectService, activity *services.ActivityService, reports *services.ReportService) *ProjectHandler {
	return &ProjectHandler{Service: service, Activity: activity, Reports: reports}
}

func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOf(w, r)
	if !ok {
		return
	}
	var in services.CreateProjectInput
	if !decodeJSON(w, r, &in) {
		return
	}

	project, err := h.Service.Create(r.Context(), auth, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOf(w, r)
	if !ok {
		return
	}
	projects, err := h.Service.List(r.Context(), auth)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOf(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	project, err := h.Service.Get(r.Context(), auth, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOf(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in services.UpdateProjectInput
	if !decodeJSON(w, r, &in) {
		return
	}

	project, err := h.Service.Update(r.Context(), auth, id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
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

// GetProjectLogs returns the project's activity entries, newest first.
func (h *ProjectHandler) GetProjectLogs(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOf(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	logs, err := h.Activity.ListForProject(r.Context(), auth, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

func (h *ProjectHandler) GetAllLogs(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOf(w, r)
	if !ok {
		return
	}
	logs, err := h.Activity.ListAll(r.Context(), auth)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

func (h *ProjectHandler) GetProjectReport(w http.ResponseWriter, r *http.Request) {
	auth, ok := authOf(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	report, err := h.Reports.ProjectReport(r.Context(), auth, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
