package transform

import (
	"regexp"
	"strings"

	"github.com/vileikis/glowbooth/internal/job"
)

var mentionPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_-]+)\s*\}\}`)

// ResolvePrompt substitutes {{stepId}} mentions with the guest's session
// answers. Mentions without a matching answer resolve to the empty string, so
// a prompt built entirely from unanswered steps comes back blank.
func ResolvePrompt(prompt string, responses job.Responses) string {
	resolved := mentionPattern.ReplaceAllStringFunc(prompt, func(match string) string {
		stepID := mentionPattern.FindStringSubmatch(match)[1]
		answer, _ := responses.AnswerForStep(stepID)
		return answer
	})
	return strings.TrimSpace(resolved)
}
