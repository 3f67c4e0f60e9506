package media

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"

	"soundbridge/internal/common"
	"soundbridge/internal/dbmongo"
)

// HTTPServer serves message attachments out of GridFS. Downloads are
// public by URL; uploads require a signed-in user.
type HTTPServer struct {
	storage *dbmongo.AttachmentStorage
}

func NewHTTPServer(mongoClient *dbmongo.MongoClient) *HTTPServer {
	return &HTTPServer{
		storage: dbmongo.NewAttachmentStorage(mongoClient),
	}
}

func (s *HTTPServer) Router() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/media/{fileId}", s.serveFile).Methods(http.MethodGet)
	router.Handle("/media", common.AuthMiddleware(http.HandlerFunc(s.uploadFile))).Methods(http.MethodPost)
	router.HandleFunc("/health", s.health).Methods(http.MethodGet)

	return router
}

func (s *HTTPServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router().ServeHTTP(w, r)
}

func (s *HTTPServer) serveFile(w http.ResponseWriter, r *http.Request) {
	fileId := mux.Vars(r)["fileId"]

	fileReader, attachment, err := s.storage.Download(r.Context(), fileId)
	if err != nil {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}

	contentType := attachment.MimeType
	if contentType == "" {
		contentType = contentTypeFor(attachment.Filename)
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", fmt.Sprintf("%d", attachment.Size))

	if _, err := io.Copy(w, fileReader); err != nil {
		log.Printf("media: streaming %s failed: %v", fileId, err)
	}
}

func (s *HTTPServer) uploadFile(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		common.WriteError(w, http.StatusUnauthorized, common.ErrAuthRequired.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		common.WriteError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	mimeType := header.Header.Get("Content-Type")
	attachment, err := s.storage.Upload(r.Context(), header.Filename, mimeType, userID, file)
	if err != nil {
		log.Printf("media: upload by %s failed: %v", userID, err)
		common.WriteError(w, http.StatusInternalServerError, "upload failed")
		return
	}

	common.WriteJSON(w, http.StatusCreated, attachment)
}

func contentTypeFor(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".mp3":
		return "audio/mpeg"
	case ".wav":
		return "audio/wav"
	case ".ogg":
		return "audio/ogg"
	default:
		return "application/octet-stream"
	}
}

func (s *HTTPServer) health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
