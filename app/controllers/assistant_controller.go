package controllers

import (
	"net/http"

	"collab-go/app/models"
	"collab-go/app/services"
)

// AssistantController proxies chat questions to the LLM.
type AssistantController struct {
	Service *services.AssistantService
}

// NewAssistantController creates a new AssistantController.
func NewAssistantController(service *services.AssistantService) *AssistantController {
	return &AssistantController{Service: service}
}

// Ask handles POST /llms.
func (c *AssistantController) Ask(w http.ResponseWriter, r *http.Request) {
	var req models.LLMRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := c.Service.Ask(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
