package handler

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"

	"binsorter/internal/dto"
	"binsorter/internal/logger"
	"binsorter/internal/service"
	"binsorter/internal/service/ai"
)

const (
	// multipartSlack covers form boundaries and headers on top of the image itself.
	multipartSlack = 1 << 20
	// maxFormMemory is how much of a multipart form is kept in memory.
	maxFormMemory = 32 << 20
)

// ClassifyHandler handles POST /api/classify with a multipart "file" field.
// Nothing found and unrecognized items are 200 responses carrying that status.
func ClassifyHandler(classifier *service.Classifier, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodPost) {
			return
		}

		if max := classifier.MaxSize(); max > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, max+multipartSlack)
		}

		if err := r.ParseMultipartForm(maxFormMemory); err != nil {
			if isTooLarge(err) {
				writeError(w, http.StatusRequestEntityTooLarge, "Image too large")
				return
			}
			writeError(w, http.StatusBadRequest, "Expected a multipart form with a file field")
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "Missing file field")
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			logger.Error("Error reading upload %s: %v", header.Filename, err)
			writeError(w, http.StatusBadRequest, "Unable to read upload")
			return
		}

		res, err := classifier.Classify(r.Context(), data, "upload")
		if err != nil {
			status := classifyStatus(err)
			if status >= http.StatusInternalServerError {
				logger.Error("Classification of %s failed: %v", header.Filename, err)
			} else {
				logger.Warning("Rejected upload %s: %v", header.Filename, err)
			}
			writeError(w, status, err.Error())
			return
		}

		resp := dto.ClassifyResponse{
			Verdict:        res.Verdict,
			Filename:       res.Filename,
			AnnotatedImage: base64.StdEncoding.EncodeToString(res.Annotated),
			ElapsedMillis:  res.Elapsed.Milliseconds(),
		}
		if err := writeJSON(w, http.StatusOK, resp); err != nil {
			logger.Error("Error encoding JSON response: %v", err)
		}
	}
}

// classifyStatus maps pipeline errors to HTTP status codes.
func classifyStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrEmptyImage):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrImageTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, service.ErrUnsupportedImage):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, ai.ErrBadImage):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ai.ErrModelUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func isTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}
