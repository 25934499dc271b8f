package domain

// Message is one entry in a conversation timeline (user or model).
// Messages are immutable once created.
type Message struct {
	ID        MessageID
	Role      Role
	Content   string
	CreatedAt Timestamp
}

// ConversationContext gives the LLM minimal context about the conversation.
type ConversationContext struct {
	// System is the persona / system instruction for the backend,
	// empty when none is configured.
	System string
	// History holds the prior turns, oldest first. The current user
	// message is carried in the prompt, not here.
	History []Message
}
