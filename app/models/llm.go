package models

// LLMMessage is one turn of an assistant conversation.
type LLMMessage struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Message string `json:"message" validate:"required,max=32768"`
}

// LLMRequest is the body of POST /llms. Only the last message is sent upstream.
type LLMRequest struct {
	Messages  []LLMMessage `json:"messages" validate:"required,min=1,max=100,dive"`
	WebSearch bool         `json:"web_search"`
}

type LLMResponse struct {
	Role    string `json:"role"`
	Message string `json:"message"`
}
