package conversation

// Conversation is an ordered list of turns forming one dialogue.
// The whole history is resent on every follow-up; no server-side session exists.
// It is not safe for concurrent use; callers guard it.
type Conversation struct {
	turns []Turn
}

// New returns an empty conversation.
func New() *Conversation {
	return &Conversation{}
}

// Reset drops all turns.
func (c *Conversation) Reset() {
	c.turns = nil
}

// Append adds a turn at the end.
func (c *Conversation) Append(t Turn) {
	c.turns = append(c.turns, t)
}

// Turns returns a copy of the turn list.
func (c *Conversation) Turns() []Turn {
	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// Len returns the number of turns.
func (c *Conversation) Len() int {
	return len(c.turns)
}

// Last returns the final turn, if any.
func (c *Conversation) Last() (Turn, bool) {
	if len(c.turns) == 0 {
		return Turn{}, false
	}
	return c.turns[len(c.turns)-1], true
}

// Truncate drops every turn from index n onward.
func (c *Conversation) Truncate(n int) {
	if n < 0 {
		n = 0
	}
	if n < len(c.turns) {
		c.turns = c.turns[:n]
	}
}
