package model

// VideoUpload is the upload form of the video page.
type VideoUpload struct {
	FilePath    string `validate:"required"`
	Title       string `validate:"required"`
	Description string
	IsPublic    bool
	IsPaid      bool
	Price       string // Decimal string, only sent for paid videos
}

// UploadResult is what the backend answers to a successful upload.
type UploadResult struct {
	Message string `json:"msg"`
	VideoID int64  `json:"video_id"`
	Title   string `json:"title"`
}
