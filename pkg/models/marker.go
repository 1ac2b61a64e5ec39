package models

// MarkerType identifies an orchestration marker embedded in assistant text.
type MarkerType string

const (
	// MarkerHalt signals a fatal condition; the payload is the reason.
	MarkerHalt MarkerType = "HALT"
	// MarkerCreateStoryComplete signals create-story finished; payload is the story key.
	MarkerCreateStoryComplete MarkerType = "CREATE_STORY_COMPLETE"
	// MarkerDevStoryComplete signals dev-story finished; payload is the story key.
	MarkerDevStoryComplete MarkerType = "DEV_STORY_COMPLETE"
	// MarkerCodeReviewApproved signals the review passed; payload is the story key.
	MarkerCodeReviewApproved MarkerType = "CODE_REVIEW_APPROVED"
	// MarkerCodeReviewIssues signals the review found issues; payload is the story key.
	MarkerCodeReviewIssues MarkerType = "CODE_REVIEW_ISSUES"
	// MarkerNoBacklogStories signals create-story found nothing to create (self-closing).
	MarkerNoBacklogStories MarkerType = "NO_BACKLOG_STORIES"
	// MarkerNoReadyStories signals dev-story found nothing to develop (self-closing).
	MarkerNoReadyStories MarkerType = "NO_READY_STORIES"
)

// Valid returns true if the marker type is a known value.
func (m MarkerType) Valid() bool {
	switch m {
	case MarkerHalt, MarkerCreateStoryComplete, MarkerDevStoryComplete,
		MarkerCodeReviewApproved, MarkerCodeReviewIssues,
		MarkerNoBacklogStories, MarkerNoReadyStories:
		return true
	default:
		return false
	}
}

// SelfClosing returns true for markers written as <TAG/> with no payload.
func (m MarkerType) SelfClosing() bool {
	return m == MarkerNoBacklogStories || m == MarkerNoReadyStories
}
