package models

// EmotionScore is one (name, score) pair reported by the voice-analysis API
type EmotionScore struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// EmotionEvent is one turn-level record fetched from the emotion-event API.
// Immutable once fetched.
type EmotionEvent struct {
	ID              string                 `json:"id"`
	Type            string                 `json:"type"`
	Timestamp       int64                  `json:"timestamp"`
	UserInput       string                 `json:"user_input,omitempty"`
	AssistantOutput string                 `json:"assistant_output,omitempty"`
	Emotions        []EmotionScore         `json:"emotions"`
	Metadata        map[string]interface{} `json:"metadata,omitempty"`
}

// DominantEmotion is one emotion aggregated across all events of a session
type DominantEmotion struct {
	Name      string  `json:"name"`
	MeanScore float64 `json:"mean_score"`
	Count     int     `json:"count"`
}

// TimelineEntry is the per-event emotion vector retained for prompt building
type TimelineEntry struct {
	Timestamp int64          `json:"timestamp"`
	Emotions  []EmotionScore `json:"emotions"`
}

// EmotionSummary is derived fresh on every finalize call, never cached.
type EmotionSummary struct {
	DominantEmotions []DominantEmotion `json:"dominant_emotions"`
	Timeline         []TimelineEntry   `json:"timeline"`
	EventCount       int               `json:"event_count"`
}

// TopEmotionNames returns up to n dominant emotion names, best first
func (s *EmotionSummary) TopEmotionNames(n int) []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, n)
	for _, e := range s.DominantEmotions {
		if len(names) == n {
			break
		}
		names = append(names, e.Name)
	}
	return names
}
