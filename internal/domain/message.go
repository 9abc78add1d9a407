package domain

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type MessageKind string

const (
	// KindQuery carries free text: the user's question or the assistant's
	// summary response.
	KindQuery MessageKind = "query"
	// KindSuggestion echoes a selected suggestion back into the
	// conversation (title + thumbnail).
	KindSuggestion MessageKind = "suggestion"
)

// Message is one immutable conversation record. Messages are append-only;
// clearing the conversation discards the whole sequence, never one entry.
type Message struct {
	ID    string      `json:"id"`
	Text  string      `json:"text"`
	Role  Role        `json:"role"`
	Kind  MessageKind `json:"kind"`
	Image string      `json:"image,omitempty"`
	Title string      `json:"title,omitempty"`
}

func (m Message) IsAssistant() bool {
	return m.Role == RoleAssistant
}
