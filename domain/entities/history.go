package entities

// Role identifies the author of a history entry
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Entry is a single message in a session's conversation history.
// The wire format (role + parts) matches what the LLM expects as context.
type Entry struct {
	Role  Role     `json:"role" bson:"role"`
	Parts []string `json:"parts" bson:"parts"`
}

// NewUserEntry creates a user-authored history entry
func NewUserEntry(text string) Entry {
	return Entry{Role: RoleUser, Parts: []string{text}}
}

// NewModelEntry creates a model-authored history entry
func NewModelEntry(text string) Entry {
	return Entry{Role: RoleModel, Parts: []string{text}}
}

// AppendTurn appends one full exchange (user then model) to a history.
// Entries are only ever appended in pairs, so a well-formed history always
// has an even entry count alternating user, model.
func AppendTurn(history []Entry, userText, modelText string) []Entry {
	return append(history, NewUserEntry(userText), NewModelEntry(modelText))
}

// Text flattens an entry's parts into a single string
func (e Entry) Text() string {
	switch len(e.Parts) {
	case 0:
		return ""
	case 1:
		return e.Parts[0]
	}
	var text string
	for _, part := range e.Parts {
		text += part
	}
	return text
}
