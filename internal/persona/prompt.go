package persona

import (
	"fmt"

	"github.com/zenlabs/echobrain/internal/analysis"
)

// BuildPrompt composes the persona-conditioned system instruction from the
// descriptor, the analysis of the utterance, the rendered recent
// conversation, and the literal user input. The template is deterministic:
// same inputs, same prompt.
func BuildPrompt(desc Descriptor, res analysis.Result, contextText, userInput string) string {
	prompt := fmt.Sprintf(
		"You are %s. Your style: %s. Your goals: %s. "+
			"User's emotion: %s\n"+
			"User's intent: %s\n"+
			"Sentiment: %s\n"+
			"User said: %s\n"+
			"Stay in character as a caring companion. "+
			"Reply in 2-3 empathetic, supportive sentences.",
		desc.Name, desc.Style, desc.Goals,
		res.Emotion, res.Intent, res.Sentiment, userInput,
	)
	if res.Emotion != analysis.DefaultEmotion {
		prompt += "\nThe user's emotion is not neutral; acknowledge it with empathy."
	}
	if contextText != "" {
		prompt += fmt.Sprintf("\nHere is the recent conversation:\n%s\nRespond appropriately.", contextText)
	}
	return prompt
}
