package stream

import (
	"regexp"

	"github.com/mazzeb/bmad-ralph-loop/pkg/models"
)

// Paired markers carry a payload between open and close tags; self-closing
// markers carry none. One compiled pattern per tag, since Go's regexp has
// no backreferences to pair open and close tags in a single expression.
var (
	pairedMarkerTags = []models.MarkerType{
		models.MarkerHalt,
		models.MarkerCreateStoryComplete,
		models.MarkerDevStoryComplete,
		models.MarkerCodeReviewApproved,
		models.MarkerCodeReviewIssues,
	}

	pairedMarkerRE = func() map[models.MarkerType]*regexp.Regexp {
		res := make(map[models.MarkerType]*regexp.Regexp, len(pairedMarkerTags))
		for _, tag := range pairedMarkerTags {
			res[tag] = regexp.MustCompile(`(?s)<` + string(tag) + `>(.*?)</` + string(tag) + `>`)
		}
		return res
	}()

	selfMarkerRE = regexp.MustCompile(`<(NO_BACKLOG_STORIES|NO_READY_STORIES)\s*/>`)
)

// DetectMarker scans assistant text for an orchestration marker.
//
// Matching is case-sensitive, non-greedy, and may occur anywhere in the
// text, including mid-sentence. At most the first marker per text block is
// honored: across all tag forms, the match starting earliest wins.
func DetectMarker(text string) (models.MarkerEvent, bool) {
	bestIdx := -1
	var best models.MarkerEvent

	for _, tag := range pairedMarkerTags {
		loc := pairedMarkerRE[tag].FindStringSubmatchIndex(text)
		if loc == nil {
			continue
		}
		if bestIdx < 0 || loc[0] < bestIdx {
			bestIdx = loc[0]
			best = models.MarkerEvent{Type: tag, Payload: text[loc[2]:loc[3]]}
		}
	}

	if loc := selfMarkerRE.FindStringSubmatchIndex(text); loc != nil {
		if bestIdx < 0 || loc[0] < bestIdx {
			bestIdx = loc[0]
			best = models.MarkerEvent{Type: models.MarkerType(text[loc[2]:loc[3]])}
		}
	}

	return best, bestIdx >= 0
}
