package chain

import (
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

const (
	contextVar = "context"
	inputVar   = "input"
)

// NewChatTemplate returns a (system, human) template. The system prompt gets a
// {context} block appended when it does not reference one.
func NewChatTemplate(system string) prompt.ChatTemplate {
	if !strings.Contains(system, "{"+contextVar+"}") {
		system = strings.TrimRight(system, "\n") + "\n\n{" + contextVar + "}"
	}
	return prompt.FromMessages(schema.FString,
		schema.SystemMessage(system),
		schema.UserMessage("{"+inputVar+"}"),
	)
}
