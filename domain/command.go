package domain

// ConnID identifies a live connection. The gateway assigns one per accepted
// connection; the core only ever compares them.
type ConnID string

// Command is an intent dispatched by the gateway into the message pipeline.
type Command interface {
	Chat() string
	// Source is the connection the command came from, so failures can be
	// reported to it alone.
	Source() ConnID
}

type PostMessageCommand struct {
	ChatID     string
	SenderID   string
	Content    string
	Attachment string
	Origin     ConnID
}

func (c PostMessageCommand) Chat() string { return c.ChatID }

func (c PostMessageCommand) Source() ConnID { return c.Origin }

type MarkReadCommand struct {
	ChatID string
	UserID string
	Origin ConnID
}

func (c MarkReadCommand) Chat() string { return c.ChatID }

func (c MarkReadCommand) Source() ConnID { return c.Origin }

type TypingCommand struct {
	ChatID   string
	UserID   string
	IsTyping bool
	Origin   ConnID
}

func (c TypingCommand) Chat() string { return c.ChatID }

func (c TypingCommand) Source() ConnID { return c.Origin }
