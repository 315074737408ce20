package domain

// ChatMessage is the chat completion message shape sent to the remote model.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
