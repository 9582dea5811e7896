package advisor

import (
	"regexp"
	"strings"
)

var (
	listItem   = regexp.MustCompile(`^(?:[-*•]|\d+[.)])\s*`)
	itemPrefix = regexp.MustCompile(`^[-*•\d.)\s]+`)
)

// DefaultSteps are returned when a model answer has no parseable list.
var DefaultSteps = []string{"Review spending habits", "Set monthly budgets", "Track expenses daily"}

// ExtractActionableSteps collects the list items that follow the first line
// mentioning recommendations or steps, stopping at the trend section.
func ExtractActionableSteps(text string) []string {
	var steps []string
	inSection := false
	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(line)
		if strings.Contains(lower, "recommendation") || strings.Contains(lower, "steps") {
			inSection = true
			continue
		}
		if !inSection {
			continue
		}
		if strings.Contains(lower, "trend") && len(steps) > 0 {
			break
		}
		trimmed := strings.TrimSpace(line)
		if !listItem.MatchString(trimmed) {
			continue
		}
		step := strings.TrimSpace(strings.Trim(itemPrefix.ReplaceAllString(trimmed, ""), "*"))
		if step != "" {
			steps = append(steps, step)
		}
	}
	if len(steps) == 0 {
		return append([]string(nil), DefaultSteps...)
	}
	return steps
}

var defaultSuggestions = []string{
	"What's my biggest spending category?",
	"How are my savings goals doing?",
	"Show me this month's spending",
	"Give me money-saving tips",
}

// FallbackSuggestions accompany the static reply when the model is
// unavailable.
var FallbackSuggestions = []string{"Try asking about your spending", "Check your savings goals"}

// ExtractSuggestions proposes follow-up questions based on the topics the
// answer touched.
func ExtractSuggestions(text string) []string {
	lower := strings.ToLower(text)
	var out []string
	if strings.Contains(lower, "spending") {
		out = append(out, "Show my spending breakdown")
	}
	if strings.Contains(lower, "savings") || strings.Contains(lower, "goal") {
		out = append(out, "Check my savings goals")
	}
	if strings.Contains(lower, "budget") {
		out = append(out, "Help me create a budget")
	}
	if strings.Contains(lower, "recommendation") {
		out = append(out, "Get personalized recommendations")
	}
	if len(out) == 0 {
		return append([]string(nil), defaultSuggestions...)
	}
	return out
}

func QuickResponses() []string {
	return []string{
		"What's my biggest spending category?",
		"How much did I spend this month?",
		"How are my savings goals doing?",
		"Give me tips to save money",
		"Show me my recent transactions",
		"Help me create a budget",
		"What should I focus on reducing?",
	}
}

// AnalysisMessage maps a topic to the question asked on the user's behalf.
func AnalysisMessage(topic string) string {
	switch strings.ToLower(strings.TrimSpace(topic)) {
	case "spending":
		return "Analyze my current spending patterns and tell me what concerns you the most."
	case "savings":
		return "How are my savings goals progressing and what can I do to improve?"
	case "budget":
		return "Help me create a realistic monthly budget based on my spending history."
	case "trends":
		return "What trends do you see in my spending over the past few months?"
	case "categories":
		return "Which spending categories should I focus on reducing and why?"
	case "goals":
		return "Evaluate my savings goals and suggest optimizations."
	default:
		return "Give me a comprehensive financial health check based on all my data."
	}
}

// AdviceMessage asks for advice on one category, or on the biggest savings
// opportunities when category is blank.
func AdviceMessage(category string) string {
	if strings.TrimSpace(category) == "" {
		return "Based on my spending patterns, what are the top 3 areas where I can save money? " +
			"Give me specific, actionable advice."
	}
	return "Give me specific advice on how to reduce my " + strings.ReplaceAll(category, "_", " ") + " spending. " +
		"What are practical steps I can take immediately?"
}
