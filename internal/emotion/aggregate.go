package emotion

import (
	"sort"

	"github.com/serene-ai/serene-backend/internal/models"
)

// Emotions beyond the top N by mean score are dropped from the dominant list
const dominantEmotionLimit = 10

// Aggregate reduces the events of one conversation to an emotion summary:
// per-name mean score and occurrence count, the top emotions by mean score,
// and the full per-event timeline for prompt construction.
func Aggregate(events []models.EmotionEvent) *models.EmotionSummary {
	type acc struct {
		total float64
		count int
	}

	byName := make(map[string]*acc)
	timeline := make([]models.TimelineEntry, 0, len(events))

	for _, ev := range events {
		if len(ev.Emotions) > 0 {
			timeline = append(timeline, models.TimelineEntry{
				Timestamp: ev.Timestamp,
				Emotions:  ev.Emotions,
			})
		}
		for _, e := range ev.Emotions {
			a, ok := byName[e.Name]
			if !ok {
				a = &acc{}
				byName[e.Name] = a
			}
			a.total += e.Score
			a.count++
		}
	}

	dominant := make([]models.DominantEmotion, 0, len(byName))
	for name, a := range byName {
		dominant = append(dominant, models.DominantEmotion{
			Name:      name,
			MeanScore: a.total / float64(a.count),
			Count:     a.count,
		})
	}

	// Name ascending on equal means keeps the ordering deterministic
	sort.Slice(dominant, func(i, j int) bool {
		if dominant[i].MeanScore != dominant[j].MeanScore {
			return dominant[i].MeanScore > dominant[j].MeanScore
		}
		return dominant[i].Name < dominant[j].Name
	})

	if len(dominant) > dominantEmotionLimit {
		dominant = dominant[:dominantEmotionLimit]
	}

	return &models.EmotionSummary{
		DominantEmotions: dominant,
		Timeline:         timeline,
		EventCount:       len(events),
	}
}
