package search

import (
	"regexp"
	"strings"
)

// QueryType is the classified intent of a search query
type QueryType string

const (
	QueryTypeEmotion        QueryType = "emotion"
	QueryTypeFactExtraction QueryType = "fact_extraction"
	QueryTypePersonalInfo   QueryType = "personal_info"
	QueryTypeTopicBased     QueryType = "topic_based"
	QueryTypeGeneral        QueryType = "general"
)

// emotionLexicon covers both emotion vocabulary in queries ("was I sad")
// and dominant-emotion names stored at indexing time
var emotionLexicon = map[string]bool{
	"emotion": true, "emotions": true, "emotional": true, "feel": true,
	"feeling": true, "feelings": true, "felt": true, "mood": true,
	"happy": true, "happiness": true, "sad": true, "sadness": true,
	"angry": true, "anger": true, "anxious": true, "anxiety": true,
	"stressed": true, "stress": true, "worried": true, "worry": true,
	"excited": true, "excitement": true, "calm": true, "calmness": true,
	"frustrated": true, "frustration": true, "lonely": true,
	"loneliness": true, "joy": true, "joyful": true, "fear": true,
	"afraid": true, "scared": true, "upset": true, "tired": true,
	"exhausted": true, "content": true, "grateful": true, "hopeful": true,
}

var factKeywords = []string{
	"what", "when", "who", "mentioned", "said", "told", "remember", "recall",
}

var personalKeywords = []string{
	"my ", "i have", "i own", "i've got", "mine",
}

var topicKeywords = []string{
	"about", "regarding", "related to", "concerning",
}

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true,
	"but": true, "in": true, "on": true, "at": true, "to": true,
	"for": true, "of": true, "with": true, "by": true, "from": true,
	"as": true, "is": true, "was": true, "are": true, "were": true,
	"be": true, "been": true, "have": true, "has": true, "had": true,
	"do": true, "does": true, "did": true, "will": true, "would": true,
	"could": true, "should": true, "may": true, "might": true, "can": true,
	"where": true, "how": true, "what": true, "which": true, "who": true,
	"when": true, "i": true, "my": true, "me": true, "we": true, "you": true,
	"about": true, "regarding": true, "that": true, "this": true,
}

var nonWord = regexp.MustCompile(`[^\w]`)

// ClassifyQuery determines the query type. First match wins in priority
// order: emotion, fact extraction, personal info, topic based, general.
func ClassifyQuery(query string) QueryType {
	q := strings.ToLower(query)

	for _, word := range strings.Fields(q) {
		if emotionLexicon[nonWord.ReplaceAllString(word, "")] {
			return QueryTypeEmotion
		}
	}

	for _, kw := range factKeywords {
		if containsWord(q, kw) {
			return QueryTypeFactExtraction
		}
	}

	for _, kw := range personalKeywords {
		if strings.Contains(q, kw) {
			return QueryTypePersonalInfo
		}
	}

	for _, kw := range topicKeywords {
		if containsWord(q, kw) {
			return QueryTypeTopicBased
		}
	}

	return QueryTypeGeneral
}

// ExtractKeywords pulls meaningful lowercase keywords out of a query,
// dropping stop words and punctuation
func ExtractKeywords(query string) []string {
	words := strings.Fields(strings.ToLower(query))
	keywords := make([]string, 0, len(words))

	for _, word := range words {
		word = nonWord.ReplaceAllString(word, "")
		if word == "" || len(word) < 2 || stopWords[word] {
			continue
		}
		keywords = append(keywords, word)
	}

	return keywords
}

// ExtractTopicToken returns the token a topic-based query is about: the
// first keyword following a topic marker, or the first keyword overall.
func ExtractTopicToken(query string) string {
	words := strings.Fields(strings.ToLower(query))
	for i, word := range words {
		word = nonWord.ReplaceAllString(word, "")
		if (word == "about" || word == "regarding" || word == "concerning") && i+1 < len(words) {
			for _, next := range words[i+1:] {
				next = nonWord.ReplaceAllString(next, "")
				if next != "" && !stopWords[next] {
					return next
				}
			}
		}
	}

	keywords := ExtractKeywords(query)
	if len(keywords) > 0 {
		return keywords[0]
	}
	return ""
}

// EmotionWords returns the emotion-lexicon words present in a query
func EmotionWords(query string) []string {
	var found []string
	for _, word := range strings.Fields(strings.ToLower(query)) {
		word = nonWord.ReplaceAllString(word, "")
		if emotionLexicon[word] {
			found = append(found, word)
		}
	}
	return found
}

func containsWord(q, kw string) bool {
	for _, word := range strings.Fields(q) {
		if nonWord.ReplaceAllString(word, "") == kw {
			return true
		}
	}
	return false
}
