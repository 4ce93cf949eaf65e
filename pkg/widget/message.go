package widget

// Role identifies the author of a message in the conversation.
type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

const (
	// PlaceholderContent is shown in the bot slot while a request is in flight.
	PlaceholderContent = "..."
	// ErrorContent replaces the placeholder when the transport fails.
	ErrorContent = "There was an error processing your request."
	// NoAnswerContent is used when the endpoint answers without a response field.
	NoAnswerContent = "Sorry, I don't have an answer for that."
	// DefaultTitle and DefaultPlaceholder label the panel and its input line.
	DefaultTitle       = "Nestlé Chatbot"
	DefaultPlaceholder = "Ask me anything!"
	// DefaultGreeting seeds every fresh conversation.
	DefaultGreeting = "Hello, I'm your personal MadeWithNestle.ca AI assistant! " +
		"Ask me anything, and I'll search the entire site to find the answers you need!"
)

// Message is a single committed entry of the conversation. Failed marks the
// bot entry that replaced the placeholder of a failed exchange.
type Message struct {
	Role    Role   `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
	Failed  bool   `json:"failed,omitempty" yaml:"failed,omitempty"`
}

func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

func BotMessage(content string) Message {
	return Message{Role: RoleBot, Content: content}
}

func FailedMessage(content string) Message {
	return Message{Role: RoleBot, Content: content, Failed: true}
}

func (m Message) IsBot() bool { return m.Role == RoleBot }
