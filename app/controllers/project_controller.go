package controllers

import (
	"net/http"

	"collab-go/app/models"
	"collab-go/app/services"

	"github.com/gorilla/mux"
)

// ProjectController handles projects, notes and membership.
type ProjectController struct {
	Service *services.ProjectService
}

// NewProjectController creates a new ProjectController.
func NewProjectController(service *services.ProjectService) *ProjectController {
	return &ProjectController{Service: service}
}

// GetProjects handles GET /projects.
func (c *ProjectController) GetProjects(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	projects, err := c.Service.List(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

// CreateProject handles POST /projects.
func (c *ProjectController) CreateProject(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req models.CreateProjectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := c.Service.Create(r.Context(), *user, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// GetProject handles GET /projects/{projectID}.
func (c *ProjectController) GetProject(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	p, err := c.Service.Get(r.Context(), mux.Vars(r)["projectID"], user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// AddNote handles POST /projects/{projectID}/notes.
func (c *ProjectController) AddNote(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req models.NoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	n, err := c.Service.AddNote(r.Context(), mux.Vars(r)["projectID"], user.ID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, struct {
		Message string       `json:"message"`
		NoteID  string       `json:"note_id"`
		Note    *models.Note `json:"note"`
	}{"Note added", n.ID, n})
}

// UpdateNote handles PUT /projects/{projectID}/notes/{noteID}.
func (c *ProjectController) UpdateNote(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req models.NoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	vars := mux.Vars(r)
	if _, err := c.Service.UpdateNote(r.Context(), vars["projectID"], vars["noteID"], user.ID, req); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, message{"Note updated"})
}

// DeleteNote handles DELETE /projects/{projectID}/notes/{noteID}.
func (c *ProjectController) DeleteNote(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	vars := mux.Vars(r)
	if err := c.Service.DeleteNote(r.Context(), vars["projectID"], vars["noteID"], user.ID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, message{"Note deleted successfully"})
}

// AddMember handles POST /projects/{projectID}/members.
func (c *ProjectController) AddMember(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req models.AddMemberRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	m, err := c.Service.AddMember(r.Context(), mux.Vars(r)["projectID"], user.ID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, struct {
		Message string         `json:"message"`
		Member  *models.Member `json:"member"`
	}{m.Email + " added", m})
}
