package assistant

import (
	"strings"

	"github.com/shelfwise/shelfwise-server/internal/domain"
)

const (
	recentViewsInContext = 10
	contextTerminator    = "\n--- END OF USER CONTEXT ---\n\n"

	personaLine      = "You are a helpful library assistant.\n\n"
	titleInstruction = "**Crucial Instruction:** After you use the `getBooks` tool, you MUST mention the book's full title in your text response. " +
		"For example, instead of saying 'Yes, I have it', you must say 'Yes, I have The Great Gatsby by F. Scott Fitzgerald'. " +
		"This is essential for the system to show the book's cover to the user.\n\n"
)

// userContext renders the reader's favorites and recent views. Mention
// extraction depends on titleInstruction: the model must spell out titles.
func userContext(p *domain.Profile) string {
	if p == nil || p.User == nil {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(personaLine)
	sb.WriteString(titleInstruction)

	if len(p.Favorites) > 0 {
		sb.WriteString("**User's Favorite Books (Tracked):**\n")
		for i := range p.Favorites {
			writeBookLine(&sb, &p.Favorites[i])
		}
	}

	if recent := p.RecentViews(recentViewsInContext); len(recent) > 0 {
		sb.WriteString("\n**User's Recently Viewed Books:**\n")
		for _, v := range recent {
			writeBookLine(&sb, v.Book)
		}
	}
	return sb.String()
}

func writeBookLine(sb *strings.Builder, b *domain.Book) {
	sb.WriteString("- Title: ")
	sb.WriteString(b.Title)
	sb.WriteString(", Author: ")
	sb.WriteString(b.Author)
	sb.WriteString(", Categories: ")
	sb.WriteString(strings.Join(b.Categories, ", "))
	sb.WriteByte('\n')
}

// finalPrompt prefixes prompt with the user context when there is one.
func finalPrompt(context, prompt string) string {
	if context == "" {
		return prompt
	}
	return context + contextTerminator + prompt
}

// historyMessages maps client turns to model messages. Empty turns are
// dropped.
func historyMessages(history []domain.Turn) []Message {
	out := make([]Message, 0, len(history))
	for _, t := range history {
		if strings.TrimSpace(t.Text) == "" {
			continue
		}
		role := RoleUser
		if t.IsAssistant() {
			role = RoleModel
		}
		out = append(out, Message{Role: role, Text: t.Text})
	}
	return out
}
