package chat

const (
	ChatRoleUser   = "user"
	ChatRoleAgent  = "assistant" // NPC
	ChatRoleSystem = "system"
)

// ChatMessage represents a single chat message in a conversation.
// The shape matches the messages array of OpenAI-style chat APIs, and is
// also used as the conversation-history element on NPC entities.
type ChatMessage struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}
