package usecase

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"audio-transcription-service/internal/domain/model"
)

const (
	summaryLimit   = 200
	minKeyPointLen = 20
	minBackfillLen = 30
	maxNotesItems  = 5
)

var sentenceSplit = regexp.MustCompile(`[.!?]\s+`)

// Sentences that hint at decisions or takeaways.
var keyPointKeywords = []string{
	"important", "key", "must", "should", "need to", "action item",
	"takeaway", "decision", "agreed", "conclusion", "summary",
}

// Sentences that commit someone to doing something.
var actionVerbs = []string{
	"will", "shall", "must", "need to", "going to", "plan to",
	"assign", "create", "develop", "implement", "complete",
}

// FormatMeetingNotes derives notes from a transcript with keyword and
// sentence-length heuristics. Output is deterministic for a fixed input.
func FormatMeetingNotes(text string, now time.Time) *model.MeetingNotes {
	summary := text
	// Truncate on rune boundaries so a multibyte character straddling the
	// limit is never split into invalid UTF-8.
	if runes := []rune(text); len(runes) > summaryLimit {
		summary = string(runes[:summaryLimit]) + "..."
	}

	sentences := splitSentences(text)

	keyPoints := make([]string, 0, maxNotesItems)
	for _, s := range sentences {
		if len(s) > minKeyPointLen && containsAny(s, keyPointKeywords) {
			keyPoints = append(keyPoints, s)
		}
	}
	// Backfill from the longest remaining sentences until we have three.
	if len(keyPoints) < 3 {
		longest := make([]string, len(sentences))
		copy(longest, sentences)
		sort.SliceStable(longest, func(i, j int) bool { return len(longest[i]) > len(longest[j]) })
		if len(longest) > maxNotesItems {
			longest = longest[:maxNotesItems]
		}
		for _, s := range longest {
			if len(s) > minBackfillLen && !contains(keyPoints, s) {
				keyPoints = append(keyPoints, s)
				if len(keyPoints) >= 3 {
					break
				}
			}
		}
	}
	if len(keyPoints) > maxNotesItems {
		keyPoints = keyPoints[:maxNotesItems]
	}

	actionItems := make([]string, 0, maxNotesItems)
	for _, s := range sentences {
		if len(s) > minKeyPointLen && containsAny(s, actionVerbs) {
			actionItems = append(actionItems, s)
			if len(actionItems) == maxNotesItems {
				break
			}
		}
	}

	return &model.MeetingNotes{
		Date:           now.Format("2006-01-02"),
		Summary:        summary,
		KeyPoints:      keyPoints,
		ActionItems:    actionItems,
		FullTranscript: text,
	}
}

// splitSentences breaks text on sentence-terminal punctuation followed by
// whitespace, keeping the punctuation with the preceding sentence.
func splitSentences(text string) []string {
	var sentences []string
	last := 0
	for _, loc := range sentenceSplit.FindAllStringIndex(text, -1) {
		// loc[0] is the terminal punctuation; keep it with the sentence.
		sentences = append(sentences, text[last:loc[0]+1])
		last = loc[1]
	}
	if last < len(text) {
		sentences = append(sentences, text[last:])
	}
	return sentences
}

func containsAny(s string, terms []string) bool {
	lower := strings.ToLower(s)
	for _, term := range terms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
