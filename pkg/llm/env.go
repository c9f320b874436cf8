package llm

import "os"

const (
	defaultOpenAIModel    = "gpt-4o-mini"
	defaultAnthropicModel = "claude-sonnet-4-20250514"
)

// FromEnv builds a generator from conventional API key environment
// variables, preferring Anthropic when both are set. Returns nil when
// neither key is present; callers treat nil as synthesis disabled.
func FromEnv() Generator {
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		model := os.Getenv("TOOLHUB_ANTHROPIC_MODEL")
		if model == "" {
			model = defaultAnthropicModel
		}
		return NewAnthropicGenerator(key, model)
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		model := os.Getenv("TOOLHUB_OPENAI_MODEL")
		if model == "" {
			model = defaultOpenAIModel
		}
		return NewOpenAIGenerator(key, model)
	}
	return nil
}
