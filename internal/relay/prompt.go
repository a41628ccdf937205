package relay

import (
	"fmt"
	"strings"

	"relaychat-backend/internal/models"
)

// HistoryWindow caps how many prior turns are folded into the prompt.
const HistoryWindow = 5

// BuildPrompt renders recent history and the new prompt into the single
// text block sent upstream. Pure function: identical input yields
// identical output.
func BuildPrompt(history []models.HistoryEntry, prompt string) string {
	if len(history) == 0 {
		return prompt
	}
	if len(history) > HistoryWindow {
		history = history[len(history)-HistoryWindow:]
	}

	var sb strings.Builder
	sb.WriteString("Previous conversation:\n")
	for _, entry := range history {
		label := "Human"
		if entry.Role == models.RoleAI {
			label = "Assistant"
		}
		fmt.Fprintf(&sb, "%s: %s\n", label, entry.Content)
	}
	sb.WriteString("\nDo not respond to the conversation above directly; use it only as background context.\n")
	sb.WriteString("Human: ")
	sb.WriteString(prompt)
	return sb.String()
}

// Preview truncates a prompt for log entries. Full prompts never reach
// the activity log.
func Preview(prompt string) string {
	const max = 100
	if len(prompt) <= max {
		return prompt
	}
	return prompt[:max]
}
