package chat

import "strings"

// BuildPrompt renders the transcript fed to the generator: one
// "<role> : <content>" line per prior message, roles exactly as stored,
// followed by the new user input and an open assistant turn.
// History is never truncated.
func BuildPrompt(history []Message, newUserText string) string {
	var sb strings.Builder
	for _, m := range history {
		sb.WriteString(string(m.Role))
		sb.WriteString(" : ")
		sb.WriteString(m.Content)
		sb.WriteString("\n")
	}
	sb.WriteString("user: ")
	sb.WriteString(newUserText)
	sb.WriteString("\nassistant:")
	return sb.String()
}

const titleTemplate = `You are a helpful assistant whose only job is to create concise chat titles.
Given the very first user message, generate a title in exactly 3–5 words that captures its specific topic—nothing generic or off-topic.

Examples:
User message: "How to make pull ups?"
Title: "How to Do Pull-Ups"

User message: "Tips for installing Python packages on Windows"
Title: "Installing Python Packages on Windows"

User message: "What’s the best way to learn guitar chords?"
Title: "Learning Guitar Chords Effectively"

User message: "How can I improve my sleep schedule?"
Title: "Improving Your Sleep Schedule"

---
User message: "`

// TitlePrompt is the few-shot prompt asking for a quoted 3–5 word title.
func TitlePrompt(firstUserMessage string) string {
	return titleTemplate + firstUserMessage + "\"\nTitle:"
}

// StripTitle drops exactly one leading and one trailing rune. The title
// prompt makes the model answer in quotes; this is positional and does not
// check for them, so "ab" and shorter become "".
func StripTitle(raw string) string {
	r := []rune(raw)
	if len(r) < 2 {
		return ""
	}
	return string(r[1 : len(r)-1])
}
