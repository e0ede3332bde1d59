package summarizer

import (
	"fmt"
	"strings"

	"github.com/serene-ai/serene-backend/internal/models"
)

const systemPrompt = `You are a wellness-conversation analyst. You will receive the user's side of a finished conversation with a wellness assistant, together with aggregated emotion telemetry from voice analysis. Respond with a single JSON object containing exactly these fields:
  "summary": a concise third-person summary of what the user talked about (string, required),
  "key_topics": up to five short topic labels (array of strings),
  "emotional_tone": one word describing the overall emotional tone (string),
  "has_personal_info": whether the user stated personal facts such as names, possessions, dates or credentials (boolean),
  "relevance_score": how significant this conversation is for future recall, 0.0 to 1.0 (number).
Summarize only what the user said. Do not invent details.`

// ExtractUserMessages pulls user-authored utterances out of the event list.
// Assistant output never reaches the prompt: the summary must reflect what
// the user said, not what the assistant said.
func ExtractUserMessages(events []models.EmotionEvent) []string {
	var messages []string
	for _, ev := range events {
		text := strings.TrimSpace(ev.UserInput)
		if text != "" {
			messages = append(messages, text)
		}
	}
	return messages
}

// BuildPrompt combines numbered user utterances with a textual rendering of
// the dominant emotions and the timeline size.
func BuildPrompt(userMessages []string, emo *models.EmotionSummary) string {
	var b strings.Builder

	b.WriteString("User messages, in order:\n")
	for i, msg := range userMessages {
		fmt.Fprintf(&b, "%d. %s\n", i+1, msg)
	}

	if emo != nil && len(emo.DominantEmotions) > 0 {
		b.WriteString("\nDominant emotions across the conversation (mean score, occurrences):\n")
		for _, e := range emo.DominantEmotions {
			fmt.Fprintf(&b, "- %s (%.3f, %d)\n", e.Name, e.MeanScore, e.Count)
		}
		fmt.Fprintf(&b, "\nEmotion timeline entries: %d\n", len(emo.Timeline))
	}

	return b.String()
}

// FallbackText is the deterministic summary used when the language model is
// unavailable or returns something unparseable. Byte-for-byte reproducible
// for a given message count and dominant-emotion list.
func FallbackText(userMessageCount int, topEmotions []string) string {
	if len(topEmotions) == 0 {
		return fmt.Sprintf("Conversation with %d user messages.", userMessageCount)
	}
	if len(topEmotions) > 3 {
		topEmotions = topEmotions[:3]
	}
	return fmt.Sprintf("Conversation with %d user messages. Dominant emotions: %s.",
		userMessageCount, strings.Join(topEmotions, ", "))
}
