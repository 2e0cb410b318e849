package controllers

import (
	"net/http"

	"collab-go/app/models"
	"collab-go/app/services"

	"github.com/gorilla/mux"
)

// MessageController handles direct messages.
type MessageController struct {
	Service *services.MessageService
}

// NewMessageController creates a new MessageController.
func NewMessageController(service *services.MessageService) *MessageController {
	return &MessageController{Service: service}
}

// GetMessages handles GET /messages.
func (c *MessageController) GetMessages(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	msgs, err := c.Service.Inbox(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

// GetConversations handles GET /messages/conversations.
func (c *MessageController) GetConversations(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	convs, err := c.Service.Conversations(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, convs)
}

// GetConversation handles GET /messages/{otherUserID}.
func (c *MessageController) GetConversation(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	msgs, err := c.Service.Conversation(r.Context(), user.ID, mux.Vars(r)["otherUserID"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

// SendMessage handles POST /messages.
func (c *MessageController) SendMessage(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req models.SendMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	msg, err := c.Service.Send(r.Context(), *user, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}
