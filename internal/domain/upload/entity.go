package upload

import "time"

// Upload is the record kept for every stored attachment.
type Upload struct {
	ID           string    `gorm:"column:id;primaryKey" json:"id"`
	Username     string    `gorm:"column:username;index" json:"username"`
	OriginalName string    `gorm:"column:original_name" json:"original_name"`
	FilePath     string    `gorm:"column:file_path" json:"-"`  // storage key
	FileURL      string    `gorm:"column:file_url" json:"url"` // public HTTP URL
	MimeType     string    `gorm:"column:mime_type" json:"mime_type"`
	Size         int64     `gorm:"column:size" json:"size"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Upload) TableName() string { return "stream_uploads" }

// Result is the response body of the upload endpoint. Exactly one of the
// two fields is non-empty.
type Result struct {
	ErrorMessage string `json:"errorMessage"`
	FileURI      string `json:"fileUri"`
}

func Success(fileURI string) Result { return Result{FileURI: fileURI} }

func Failure(message string) Result { return Result{ErrorMessage: message} }
