package models

// DirectMessage is a one-to-one message between two users.
type DirectMessage struct {
	ID         string `json:"_id"`
	SenderID   string `json:"sender_id"`
	SenderName string `json:"sender_name,omitempty"`
	ReceiverID string `json:"receiver_id"`
	Content    string `json:"content"`
	CreatedAt  string `json:"created_at"`
}

type SendMessageRequest struct {
	ReceiverID string `json:"receiver_id" validate:"required"`
	Content    string `json:"content" validate:"required,max=10000"`
}

// Conversation identifies a user the caller has exchanged messages with.
type Conversation struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}
