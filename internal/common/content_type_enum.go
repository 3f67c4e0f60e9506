package common

import "strings"

// AttachmentFileType classifies message attachments stored in GridFS.
type AttachmentFileType string

const (
	AttachmentFileTypeAudio AttachmentFileType = "audio"
	AttachmentFileTypeImage AttachmentFileType = "image"
	AttachmentFileTypeFile  AttachmentFileType = "file"
)

func (ft AttachmentFileType) String() string {
	return string(ft)
}

func (ft AttachmentFileType) IsValid() bool {
	return ft == AttachmentFileTypeAudio || ft == AttachmentFileTypeImage || ft == AttachmentFileTypeFile
}

// DetectAttachmentType maps a MIME type to the attachment class.
func DetectAttachmentType(mimeType string) AttachmentFileType {
	lowerMimeType := strings.ToLower(mimeType)
	if strings.HasPrefix(lowerMimeType, "audio/") {
		return AttachmentFileTypeAudio
	}
	if strings.HasPrefix(lowerMimeType, "image/") {
		return AttachmentFileTypeImage
	}
	return AttachmentFileTypeFile
}
