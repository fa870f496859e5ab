package fallback

import "strings"

type rule struct {
	keywords []string
	response string
}

// RuleResponder is the third tier: a small keyword table that covers the
// conversational staples without any remote dependency.
type RuleResponder struct {
	rules []rule
}

func NewRuleResponder() *RuleResponder {
	return &RuleResponder{
		rules: []rule{
			{
				keywords: []string{"hello", "hi ", "hey", "good morning", "good evening"},
				response: "Hello! How can I help you today?",
			},
			{
				keywords: []string{"help", "what can you do", "capabilities"},
				response: "I can answer questions, help with code, manage tasks and look things up. What do you need?",
			},
			{
				keywords: []string{"task", "todo", "reminder"},
				response: "I can create, list and complete tasks for you. Tell me what you'd like to do.",
			},
			{
				keywords: []string{"code", "function", "bug", "error"},
				response: "I can help with code, but my language services are degraded right now. Please share the details and try again shortly.",
			},
			{
				keywords: []string{"bye", "goodbye", "see you", "thanks", "thank you"},
				response: "You're welcome! Come back any time.",
			},
		},
	}
}

// Respond returns the canned response for the first matching rule. The second
// return is false when no rule matches, which sends the chain to its terminal
// tier.
func (r *RuleResponder) Respond(input string) (string, bool) {
	normalized := " " + strings.ToLower(strings.TrimSpace(input)) + " "
	for _, rule := range r.rules {
		for _, keyword := range rule.keywords {
			if strings.Contains(normalized, keyword) {
				return rule.response, true
			}
		}
	}
	return "", false
}
