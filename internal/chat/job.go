package chat

// NamingJob asks a worker to title a conversation after a turn.
// MessageCount is the count right after that turn; the worker applies the
// same threshold as the inline path.
type NamingJob struct {
	ConversationID string `json:"conversation_id"`
	OwnerID        uint64 `json:"owner_id"`
	Model          string `json:"model"`
	MessageCount   int    `json:"message_count"`
}

func (j NamingJob) Valid() bool {
	return j.ConversationID != "" && j.OwnerID != 0
}
