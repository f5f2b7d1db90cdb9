package llm

import (
	"errors"
	"sort"
	"strings"
)

// Role identifies the sender of a chat message.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// ChatMessage is one entry of a conversation sent to the completion endpoint.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is the JSON body posted to chat/completions.
type CompletionRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

// Validate checks the request can be dispatched.
func (r CompletionRequest) Validate() error {
	if strings.TrimSpace(r.Model) == "" {
		return errors.New("llm: model is required")
	}
	if len(r.Messages) == 0 {
		return errors.New("llm: at least one message is required")
	}
	return nil
}

// Model is an entry of the models listing endpoint.
type Model struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// DisplayName renders the model the way pickers show it.
func (m Model) DisplayName() string {
	if m.Name != "" && m.Name != m.ID {
		return m.Name + " (" + m.ID + ")"
	}
	return m.ID
}

func (m Model) sortKey() string {
	if m.Name != "" {
		return strings.ToLower(m.Name)
	}
	return strings.ToLower(m.ID)
}

// SortModels orders models case-insensitively by name, falling back to the id.
func SortModels(models []Model) {
	sort.SliceStable(models, func(i, j int) bool {
		return models[i].sortKey() < models[j].sortKey()
	})
}

// FilterModels keeps the models whose name (or id when unnamed) contains every
// whitespace-separated word of query. An empty query keeps everything.
func FilterModels(models []Model, query string) []Model {
	words := strings.Fields(strings.ToLower(query))
	if len(words) == 0 {
		return models
	}
	out := make([]Model, 0, len(models))
	for _, m := range models {
		text := m.sortKey()
		matched := true
		for _, w := range words {
			if !strings.Contains(text, w) {
				matched = false
				break
			}
		}
		if matched {
			out = append(out, m)
		}
	}
	return out
}

// FindModel looks a model up by exact id or, case-insensitively, by name or id.
func FindModel(models []Model, query string) (Model, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	for _, m := range models {
		if m.ID == query {
			return m, true
		}
	}
	for _, m := range models {
		if strings.ToLower(m.ID) == q || (m.Name != "" && strings.ToLower(m.Name) == q) {
			return m, true
		}
	}
	return Model{}, false
}
