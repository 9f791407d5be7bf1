package entity

import "time"

// Attachment represents a stored receipt image
type Attachment struct {
	Key         string    `json:"key"`
	BillID      string    `json:"billId,omitempty"`
	FileName    string    `json:"fileName"`
	ContentType string    `json:"contentType"`
	FilePath    string    `json:"filePath"`
	FileSize    int64     `json:"fileSize"`
	Email       string    `json:"email"`
	CreatedAt   time.Time `json:"createdAt"`
}

// AttachmentReceipt is returned once an attachment upload completes
type AttachmentReceipt struct {
	FileURL string `json:"fileUrl"`
	Key     string `json:"key"`
}

// InvalidFormatMessage is shown when the selected receipt is not an accepted image
const InvalidFormatMessage = "Veuillez sélectionner un fichier au format jpg, jpeg ou png."

var acceptedExtensions = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
}

// IsAcceptedExtension reports whether a lower-cased extension, without the
// dot, is an accepted receipt format
func IsAcceptedExtension(ext string) bool {
	_, ok := acceptedExtensions[ext]
	return ok
}

// ContentTypeFor returns the canonical content type of an accepted extension
func ContentTypeFor(ext string) string {
	return acceptedExtensions[ext]
}
