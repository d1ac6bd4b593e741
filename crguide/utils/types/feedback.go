// crguide/utils/types/feedback.go
package types

import "time"

type FeedbackRequest struct {
	MessageIndex       int    `json:"message_index"`
	FeedbackType       string `json:"feedback_type"`
	Issue              string `json:"issue"`
	AdditionalFeedback string `json:"additional_feedback"`
}

// FeedbackRecord is one CSV row in the feedback bucket.
type FeedbackRecord struct {
	Timestamp          time.Time
	ResponseID         string
	FeedbackType       string
	UserInput          string
	BotResponse        string
	Issue              string
	AdditionalFeedback string
}

func (f FeedbackRecord) Row() []string {
	return []string{
		f.Timestamp.UTC().Format(time.RFC3339),
		f.ResponseID,
		f.FeedbackType,
		f.UserInput,
		f.BotResponse,
		f.Issue,
		f.AdditionalFeedback,
	}
}

var FeedbackHeader = []string{"timestamp", "response_id", "feedback_type", "user_input", "bot_response", "issue", "additional_feedback"}
