package routes

import (
	"net/http"

	"collab-go/app/controllers"
	"collab-go/app/middleware"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Controllers bundles every controller the router dispatches to.
type Controllers struct {
	Users     *controllers.UserController
	Projects  *controllers.ProjectController
	Messages  *controllers.MessageController
	Tasks     *controllers.TaskController
	Assistant *controllers.AssistantController
}

// RegisterRoutes sets up all routes for the application. Routes other than
// registration, login, the user list, the assistant and the operational
// endpoints require a bearer token.
func RegisterRoutes(router *mux.Router, c Controllers, auth middleware.Authenticator) {
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	router.HandleFunc("/users", c.Users.GetUsers).Methods(http.MethodGet)
	router.HandleFunc("/register", c.Users.Register).Methods(http.MethodPost)
	router.HandleFunc("/login", c.Users.Login).Methods(http.MethodPost)
	router.HandleFunc("/llms", c.Assistant.Ask).Methods(http.MethodPost)

	api := router.NewRoute().Subrouter()
	api.Use(middleware.Auth(auth))

	api.HandleFunc("/me", c.Users.Me).Methods(http.MethodGet)

	api.HandleFunc("/projects", c.Projects.GetProjects).Methods(http.MethodGet)
	api.HandleFunc("/projects", c.Projects.CreateProject).Methods(http.MethodPost)
	api.HandleFunc("/projects/{projectID}", c.Projects.GetProject).Methods(http.MethodGet)
	api.HandleFunc("/projects/{projectID}/notes", c.Projects.AddNote).Methods(http.MethodPost)
	api.HandleFunc("/projects/{projectID}/notes/{noteID}", c.Projects.UpdateNote).Methods(http.MethodPut)
	api.HandleFunc("/projects/{projectID}/notes/{noteID}", c.Projects.DeleteNote).Methods(http.MethodDelete)
	api.HandleFunc("/projects/{projectID}/members", c.Projects.AddMember).Methods(http.MethodPost)

	api.HandleFunc("/messages", c.Messages.GetMessages).Methods(http.MethodGet)
	api.HandleFunc("/messages", c.Messages.SendMessage).Methods(http.MethodPost)
	api.HandleFunc("/messages/conversations", c.Messages.GetConversations).Methods(http.MethodGet)
	api.HandleFunc("/messages/{otherUserID}", c.Messages.GetConversation).Methods(http.MethodGet)

	api.HandleFunc("/tasks", c.Tasks.GetTasks).Methods(http.MethodGet)
	api.HandleFunc("/tasks", c.Tasks.CreateTask).Methods(http.MethodPost)
	api.HandleFunc("/tasks/{taskID}", c.Tasks.GetTaskByID).Methods(http.MethodGet)
	api.HandleFunc("/tasks/{taskID}", c.Tasks.UpdateTask).Methods(http.MethodPut)
	api.HandleFunc("/tasks/{taskID}", c.Tasks.DeleteTask).Methods(http.MethodDelete)
}
