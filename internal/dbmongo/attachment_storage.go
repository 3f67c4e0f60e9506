package dbmongo

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	"soundbridge/internal/common"
)

// AttachmentStorage stores message attachments in GridFS. The message
// row keeps only the attachment URL; the bytes live here.
type AttachmentStorage struct {
	gridFS *gridfs.Bucket
}

func NewAttachmentStorage(mongoClient *MongoClient) *AttachmentStorage {
	return &AttachmentStorage{
		gridFS: mongoClient.GridFS,
	}
}

type AttachmentFile struct {
	ID         string                    `json:"id"`
	Filename   string                    `json:"filename"`
	Size       int64                     `json:"size"`
	FileType   common.AttachmentFileType `json:"file_type"`
	MimeType   string                    `json:"mime_type"`
	UploadedBy string                    `json:"uploaded_by"`
	UploadedAt time.Time                 `json:"uploaded_at"`
}

func (s *AttachmentStorage) Upload(ctx context.Context, filename, mimeType, uploaderID string, content io.Reader) (*AttachmentFile, error) {
	fileType := common.DetectAttachmentType(mimeType)

	metadata := bson.M{
		"file_type":   fileType.String(),
		"mime_type":   mimeType,
		"uploaded_by": uploaderID,
		"uploaded_at": time.Now(),
	}

	opts := options.GridFSUpload().SetMetadata(metadata)
	stream, err := s.gridFS.OpenUploadStream(filename, opts)
	if err != nil {
		return nil, fmt.Errorf("upload failed: %w", err)
	}
	defer stream.Close()

	size, err := io.Copy(stream, content)
	if err != nil {
		return nil, fmt.Errorf("file copy failed: %w", err)
	}

	return &AttachmentFile{
		ID:         stream.FileID.(primitive.ObjectID).Hex(),
		Filename:   filename,
		Size:       size,
		FileType:   fileType,
		MimeType:   mimeType,
		UploadedBy: uploaderID,
		UploadedAt: time.Now(),
	}, nil
}

func (s *AttachmentStorage) Download(ctx context.Context, fileID string) (io.Reader, *AttachmentFile, error) {
	objectID, err := primitive.ObjectIDFromHex(fileID)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid file ID: %w", err)
	}

	stream, err := s.gridFS.OpenDownloadStream(objectID)
	if err != nil {
		return nil, nil, fmt.Errorf("download failed: %w", err)
	}

	fileInfo := stream.GetFile()
	var metadata bson.M
	if fileInfo.Metadata != nil {
		bson.Unmarshal(fileInfo.Metadata, &metadata)
	}

	attachment := &AttachmentFile{
		ID:         fileID,
		Filename:   fileInfo.Name,
		Size:       fileInfo.Length,
		FileType:   common.AttachmentFileType(metaString(metadata, "file_type")),
		MimeType:   metaString(metadata, "mime_type"),
		UploadedBy: metaString(metadata, "uploaded_by"),
		UploadedAt: fileInfo.UploadDate,
	}

	return stream, attachment, nil
}

func (s *AttachmentStorage) Delete(ctx context.Context, fileID string) error {
	objectID, err := primitive.ObjectIDFromHex(fileID)
	if err != nil {
		return fmt.Errorf("invalid file ID: %w", err)
	}
	return s.gridFS.Delete(objectID)
}

func metaString(m bson.M, key string) string {
	if m == nil {
		return ""
	}
	if val, ok := m[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}
