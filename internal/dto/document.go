package dto

import "time"

// UploadDocumentRequest carries the multipart form fields of an upload.
type UploadDocumentRequest struct {
	Title        string   `form:"title" validate:"required,max=200"`
	Description  string   `form:"description" validate:"max=2000"`
	Course       string   `form:"course" validate:"max=120"`
	Subject      string   `form:"subject" validate:"max=120"`
	UniversityID *string  `form:"university_id"`
	Tags         []string `form:"tags" validate:"max=10,dive,max=40"`
	ApprovalTag  string   `form:"approval_tag" validate:"max=60"`
}

// ModerateDocumentRequest is a reviewer's decision on a pending document.
type ModerateDocumentRequest struct {
	Decision string `json:"decision" validate:"required,oneof=APPROVE REJECT"`
	Grade    *int   `json:"grade" validate:"omitempty,min=0,max=20"`
	Feedback string `json:"feedback" validate:"max=2000"`
}

// DownloadLinkResponse returns a signed, expiring download token.
type DownloadLinkResponse struct {
	URL       string    `json:"url"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// FavoriteResponse reports the state after a favorite toggle.
type FavoriteResponse struct {
	DocumentID string `json:"document_id"`
	Favorited  bool   `json:"favorited"`
}
