package dto

type SubmitFeedbackRequest struct {
	FeedbackType string `json:"feedback_type" validate:"required,oneof=like dislike"`
}

type FeedbackResponse struct {
	Success bool `json:"success"`
}
