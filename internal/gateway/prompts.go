package gateway

import (
	"fmt"
	"strings"
)

const defaultUserLevel = "intermediate"

func codeOnlySystemPrompt(language string) string {
	return fmt.Sprintf("You are an expert %s programmer. Respond with %s code only. "+
		"Do not add explanations or markdown outside of code comments.", language, language)
}

func autocompleteSystemPrompt(language string) string {
	return fmt.Sprintf("You are a %s code completion engine. Continue the code exactly where it stops. "+
		"Return only the text that should be inserted, without repeating the input.", language)
}

func replySystemPrompt(language, userLevel string) string {
	level := strings.TrimSpace(userLevel)
	if level == "" {
		level = defaultUserLevel
	}
	return fmt.Sprintf("You are a patient %s programming assistant. The user is a %s programmer; "+
		"match the depth of your explanation to that level and keep answers focused.", language, level)
}

func generatePrompt(prompt, language string) string {
	return fmt.Sprintf("Write %s code for the following task:\n%s", language, prompt)
}

func replyPrompt(prompt, language, code string) string {
	var b strings.Builder
	b.WriteString(prompt)
	if strings.TrimSpace(code) != "" {
		fmt.Fprintf(&b, "\n\nCurrent %s code:\n```%s\n%s\n```", language, strings.ToLower(language), code)
	}
	return b.String()
}
