package telegram

import "strings"

// SplitMessage cuts text into chunks of at most maxLen runes, preferring to
// cut after a newline in the second half of a chunk.
func SplitMessage(text string, maxLen int) []string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return []string{text}
	}

	var parts []string
	for len(runes) > maxLen {
		cut := maxLen
		for i := maxLen - 1; i > maxLen/2; i-- {
			if runes[i] == '\n' {
				cut = i + 1
				break
			}
		}
		parts = append(parts, string(runes[:cut]))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		parts = append(parts, string(runes))
	}
	return parts
}

// EscapeMarkdown escapes the characters legacy Markdown treats as markup, so
// usernames like first_last render as written.
func EscapeMarkdown(text string) string {
	return markdownEscaper.Replace(text)
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

// FixMarkdown closes an unterminated code block or inline code span.
func FixMarkdown(text string) string {
	if strings.Count(text, "```")%2 != 0 {
		text += "\n```"
	}

	var b strings.Builder
	inBlock, inline := false, false
	for i := 0; i < len(text); i++ {
		if strings.HasPrefix(text[i:], "```") {
			if inline {
				b.WriteByte('`')
				inline = false
			}
			inBlock = !inBlock
			b.WriteString("```")
			i += 2
			continue
		}
		if !inBlock && text[i] == '`' {
			inline = !inline
		}
		b.WriteByte(text[i])
	}
	if inline {
		b.WriteByte('`')
	}
	return b.String()
}
