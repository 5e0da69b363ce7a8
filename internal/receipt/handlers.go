package receipt

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/zombor/expense-tracker/internal/parsing"
)

// maxUploadSize bounds one multipart scan request; phone photos are large
const maxUploadSize = int64(50 << 20)

var currencyCode = regexp.MustCompile(`^[A-Za-z]{3}$`)

// corsError writes an error response with CORS headers set
func corsError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	http.Error(w, message, code)
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// writeJSON encodes v as the response body
func writeJSON(w http.ResponseWriter, code int, v any) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// writeError writes a JSON error body
func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]string{"error": message})
}

// handleHealth reports liveness
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// handleScan runs every uploaded image through the pipeline
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Upload is too large. Maximum size is 50MB.")
			return
		}
		writeError(w, http.StatusBadRequest, "Error parsing form")
		return
	}

	headers := formFiles(r.MultipartForm)
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, "No file was selected. Please choose at least one receipt image.")
		return
	}

	uploads := make([]Upload, 0, len(headers))
	for _, h := range headers {
		u, err := readUpload(h)
		if err != nil {
			slog.Error("Error reading upload", "filename", h.Filename, "error", err)
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Error reading %s", h.Filename))
			return
		}
		uploads = append(uploads, u)
	}

	batch := s.service.ProcessBatch(r.Context(), uploads)

	if strings.EqualFold(r.URL.Query().Get("format"), "csv") {
		setCORSHeaders(w)
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="expenses-%s.csv"`, batch.UploadGroupID))
		if err := WriteCSV(w, batch); err != nil {
			slog.Error("Error writing CSV", "upload_group_id", batch.UploadGroupID, "error", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, batch)
}

// formFiles collects uploads from both the "files" and "file" fields
func formFiles(form *multipart.Form) []*multipart.FileHeader {
	headers := make([]*multipart.FileHeader, 0, len(form.File["files"])+len(form.File["file"]))
	headers = append(headers, form.File["files"]...)
	return append(headers, form.File["file"]...)
}

// readUpload reads one multipart file into an Upload
func readUpload(h *multipart.FileHeader) (Upload, error) {
	f, err := h.Open()
	if err != nil {
		return Upload{}, fmt.Errorf("opening upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return Upload{}, fmt.Errorf("reading upload: %w", err)
	}

	return Upload{
		Filename:    h.Filename,
		ContentType: uploadContentType(h.Header.Get("Content-Type"), h.Filename),
		Data:        data,
	}, nil
}

// uploadContentType falls back to the file extension when the client sent
// no usable type. HEIC types are kept so the scanner can convert them.
func uploadContentType(declared, filename string) string {
	declared = strings.ToLower(strings.TrimSpace(declared))
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".pdf":
		return "application/pdf"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	default:
		return "application/octet-stream"
	}
}

// handleScanText runs already transcribed text through the pipeline
func (s *Server) handleScanText(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxUploadSize)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"candidates": s.service.ProcessText(r.Context(), req.Text),
	})
}

// handleGetRate returns the EUR rate for a currency on a date
func (s *Server) handleGetRate(w http.ResponseWriter, r *http.Request) {
	currency := r.PathValue("currency")
	if !currencyCode.MatchString(currency) {
		writeError(w, http.StatusBadRequest, "currency must be a three letter ISO code")
		return
	}

	date := r.URL.Query().Get("date")
	if date != "" {
		if _, err := time.Parse(parsing.DateLayout, date); err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
	}

	writeJSON(w, http.StatusOK, s.service.RateDetail(r.Context(), strings.ToUpper(currency), date))
}

// handleListRates returns the cached rates
func (s *Server) handleListRates(w http.ResponseWriter, r *http.Request) {
	rates, err := s.service.CachedRates()
	if err != nil {
		slog.Error("Error listing rates", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, rates)
}

// handleCategories returns the category vocabulary
func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Categories())
}

// handleListUploads returns archived upload names
func (s *Server) handleListUploads(w http.ResponseWriter, r *http.Request) {
	names, err := s.service.ListUploads()
	if err != nil {
		s.uploadError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, names)
}

// handleGetUpload serves an archived upload
func (s *Server) handleGetUpload(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := s.service.GetUpload(r.PathValue("name"))
	if err != nil {
		s.uploadError(w, err)
		return
	}

	setCORSHeaders(w)
	w.Header().Set("Content-Type", contentType)
	if _, err := w.Write(data); err != nil {
		slog.Error("Error writing upload", "error", err)
	}
}

// handleDeleteUpload removes an archived upload
func (s *Server) handleDeleteUpload(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteUpload(r.PathValue("name")); err != nil {
		s.uploadError(w, err)
		return
	}

	setCORSHeaders(w)
	w.WriteHeader(http.StatusNoContent)
}

// uploadError maps archive errors onto status codes
func (s *Server) uploadError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrArchiveDisabled), errors.Is(err, fs.ErrNotExist):
		writeError(w, http.StatusNotFound, "Upload not found")
	case errors.Is(err, ErrInvalidName):
		writeError(w, http.StatusBadRequest, "Invalid upload name")
	default:
		slog.Error("Error accessing upload archive", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
