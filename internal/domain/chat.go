package domain

// UntitledChatName is the sentinel a new chat carries until the one-time
// title summarization rewrites it.
const UntitledChatName = "Untitled chat"

// Message is one entry in a chat timeline. Messages are immutable once
// appended; their position in the chat's message list is the only ordering
// that is trusted.
type Message struct {
	ID        MessageID `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt Timestamp `json:"created_at"`
}

// Chat is one conversation session. A chat always holds at least the initial
// assistant greeting once created.
type Chat struct {
	ID        ChatID     `json:"id"`
	Name      string     `json:"name"`
	CreatedAt Timestamp  `json:"created_at"`
	Messages  []*Message `json:"messages"`
}

// Untitled reports whether the chat still carries the sentinel name.
func (c *Chat) Untitled() bool {
	return c.Name == UntitledChatName
}

// UserMessageCount counts user-authored messages in the timeline.
func (c *Chat) UserMessageCount() int {
	n := 0
	for _, m := range c.Messages {
		if m.Role == RoleUser {
			n++
		}
	}
	return n
}

func (c *Chat) clone() *Chat {
	if c == nil {
		return nil
	}
	out := &Chat{
		ID:        c.ID,
		Name:      c.Name,
		CreatedAt: c.CreatedAt,
		Messages:  make([]*Message, len(c.Messages)),
	}
	for i, m := range c.Messages {
		cp := *m
		out.Messages[i] = &cp
	}
	return out
}
