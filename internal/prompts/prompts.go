// Package prompts is the fixed catalog of AI text actions.
package prompts

import "pkt.systems/inkwell/schema"

// The closed set of catalog actions.
const (
	GenerateReadme schema.ActionID = "generate-readme"
	ImproveText    schema.ActionID = "improve-text"
	Summarize      schema.ActionID = "summarize"
	SuggestBadges  schema.ActionID = "suggest-badges"
	GenerateTable  schema.ActionID = "generate-table"
	Translate      schema.ActionID = "translate"
	ExplainCode    schema.ActionID = "explain-code"
)

// Action is a preconfigured text-transformation request.
type Action struct {
	ID           schema.ActionID `json:"id"`
	Title        string          `json:"title"`
	Label        string          `json:"label"`
	Placeholder  string          `json:"placeholder"`
	SystemPrompt string          `json:"-"`
	build        func(input string) string
}

// BuildPrompt returns the user prompt for input.
func (a Action) BuildPrompt(input string) string {
	if a.build == nil {
		return input
	}
	return a.build(input)
}

var order = []schema.ActionID{
	GenerateReadme,
	ImproveText,
	Summarize,
	SuggestBadges,
	GenerateTable,
	Translate,
	ExplainCode,
}

// Lookup returns the action for id.
func Lookup(id schema.ActionID) (Action, bool) {
	switch id {
	case GenerateReadme:
		return Action{
			ID:           id,
			Title:        "Generate README",
			Label:        "Describe your project (name, tech stack, features)",
			Placeholder:  `e.g. "TodoApp: a task management app built with React & Firebase. Features: auth, CRUD tasks, categories, dark mode."`,
			SystemPrompt: "You are a GitHub README expert. Create professional README.md files with badges (shields.io), emojis, and clear sections. Use GitHub Flavored Markdown. Return ONLY markdown.",
			build: func(input string) string {
				return "Create a complete README.md for:\n\n" + input + "\n\nInclude: title, badges, description, features, tech stack, getting started, usage, contributing, license."
			},
		}, true
	case ImproveText:
		return Action{
			ID:           id,
			Title:        "Improve Text",
			Label:        "Paste the text you want to improve",
			Placeholder:  "Paste markdown text here...",
			SystemPrompt: "Improve markdown text to be more professional, clear, and well-structured. Fix grammar, enhance wording. Return ONLY improved markdown.",
			build: func(input string) string {
				return "Improve this markdown:\n\n" + input
			},
		}, true
	case Summarize:
		return Action{
			ID:           id,
			Title:        "Summarize",
			Label:        "Paste the text to summarize",
			Placeholder:  "Paste long text here...",
			SystemPrompt: "Create concise markdown summaries with bullet points. Return ONLY the summary.",
			build: func(input string) string {
				return "Summarize:\n\n" + input
			},
		}, true
	case SuggestBadges:
		return Action{
			ID:           id,
			Title:        "Suggest Badges",
			Label:        "Describe your project (tech, license, etc.)",
			Placeholder:  `e.g. "React, TypeScript, MIT license, npm package, has CI/CD"`,
			SystemPrompt: "Suggest shields.io badges in markdown. Return ONLY badge markdown code.",
			build: func(input string) string {
				return "Suggest shields.io badges for: " + input
			},
		}, true
	case GenerateTable:
		return Action{
			ID:           id,
			Title:        "Generate Table",
			Label:        "Describe the table you need",
			Placeholder:  `e.g. "3 columns: Command, Description, Example. 5 rows for git commands."`,
			SystemPrompt: "Create properly formatted markdown tables. Return ONLY the table.",
			build: func(input string) string {
				return "Create a markdown table: " + input
			},
		}, true
	case Translate:
		return Action{
			ID:           id,
			Title:        "Translate (EN↔TR)",
			Label:        "Paste the text to translate",
			Placeholder:  "Paste text here... (auto-detects language direction)",
			SystemPrompt: "Translate markdown between Turkish and English. Preserve all formatting. Return ONLY translated text.",
			build: func(input string) string {
				return "Translate (TR↔EN), preserve markdown formatting:\n\n" + input
			},
		}, true
	case ExplainCode:
		return Action{
			ID:           id,
			Title:        "Explain Code",
			Label:        "Paste the code to explain",
			Placeholder:  "Paste code here...",
			SystemPrompt: "Explain code and create markdown documentation. Include description, parameters, return values, and usage example. Return ONLY markdown.",
			build: func(input string) string {
				return "Explain this code:\n\n```\n" + input + "\n```"
			},
		}, true
	default:
		return Action{}, false
	}
}

// All returns every action in menu order.
func All() []Action {
	out := make([]Action, 0, len(order))
	for _, id := range order {
		action, _ := Lookup(id)
		out = append(out, action)
	}
	return out
}
