package controllers

import (
	"mime"
	"net/http"

	"collab-go/app/models"
	"collab-go/app/services"
)

// UserController handles accounts and sessions.
type UserController struct {
	Service *services.UserService
}

// NewUserController creates a new UserController.
func NewUserController(service *services.UserService) *UserController {
	return &UserController{Service: service}
}

// GetUsers handles GET /users.
func (c *UserController) GetUsers(w http.ResponseWriter, r *http.Request) {
	users, err := c.Service.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// Register handles POST /register.
func (c *UserController) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := c.Service.Register(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, struct {
		Message string       `json:"message"`
		User    *models.User `json:"user"`
	}{"User registered successfully", user})
}

// Login handles POST /login. It takes an OAuth2 password form, where the
// email travels as "username", or a JSON body.
func (c *UserController) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/json" {
		if !decodeJSON(w, r, &req) {
			return
		}
	} else {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := r.ParseForm(); err != nil {
			writeJSON(w, http.StatusBadRequest, detail{"Invalid request payload"})
			return
		}
		req.Email = r.PostForm.Get("username")
		req.Password = r.PostForm.Get("password")
	}
	tok, err := c.Service.Login(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tok)
}

// Me handles GET /me.
func (c *UserController) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, user)
}
