package service

import (
	"strings"

	"parley/internal/model"
)

const promptPreamble = "The following is a conversation between a user and an AI assistant."

// BuildPrompt 把完整历史与新输入拼成单条 prompt
//
//	The following is a conversation between a user and an AI assistant.
//
//	User: ...
//
//	Assistant: ...
//
//	User: <input>
//
//	Assistant:
//
// 每轮都重放全部历史，不做截断或摘要。
func BuildPrompt(history []model.Message, input string) string {
	var b strings.Builder
	b.WriteString(promptPreamble)

	for _, msg := range history {
		writeTurn(&b, msg.Role, msg.Text)
	}
	writeTurn(&b, model.RoleUser, input)

	b.WriteString("\n\n")
	b.WriteString(model.RoleAssistant.Label())
	b.WriteString(":")
	return b.String()
}

func writeTurn(b *strings.Builder, role model.Role, text string) {
	b.WriteString("\n\n")
	b.WriteString(role.Label())
	b.WriteString(": ")
	b.WriteString(text)
}
