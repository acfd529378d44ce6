package dto

// RateDocumentRequest records a 1-5 score.
type RateDocumentRequest struct {
	Score int `json:"score" validate:"required,min=1,max=5"`
}

// CreateCommentRequest adds a comment, optionally replying to a top-level one.
type CreateCommentRequest struct {
	Content         string  `json:"content" validate:"required,max=2000"`
	ParentCommentID *string `json:"parent_comment_id"`
}

// ReactCommentRequest registers a like or dislike.
type ReactCommentRequest struct {
	Reaction string `json:"reaction" validate:"required,oneof=LIKE DISLIKE"`
}

// FollowResponse reports the state after a follow toggle.
type FollowResponse struct {
	UserID    string `json:"user_id"`
	Following bool   `json:"following"`
}
