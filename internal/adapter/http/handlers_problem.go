package adapthttp

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"healthmate/internal/app"
	"healthmate/internal/domain"
)

// handleProblemReport accepts multipart/form-data with an optional
// "screenshot" file, or a plain JSON body.
func (s *Server) handleProblemReport(w http.ResponseWriter, r *http.Request) {
	var report app.ProblemReport

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		r.Body = http.MaxBytesReader(w, r.Body, app.MaxScreenshotBytes+1<<20)
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid form: %w", err))
			return
		}
		defer r.MultipartForm.RemoveAll() //nolint:errcheck
		report.Email = r.FormValue("email")
		report.Description = r.FormValue("description")

		shot, err := readScreenshot(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		report.Screenshot = shot
	} else {
		var req struct {
			Email       string `json:"email"`
			Description string `json:"description"`
		}
		if err := parseJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		report.Email, report.Description = req.Email, req.Description
	}

	if err := s.svc.Problems.Report(r.Context(), report); err != nil {
		s.fail(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Problem reported successfully.")
}

func readScreenshot(r *http.Request) (*domain.Attachment, error) {
	f, hdr, err := r.FormFile("screenshot")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("invalid screenshot: %w", err)
	}
	defer f.Close() //nolint:errcheck

	if hdr.Size > app.MaxScreenshotBytes {
		return nil, fmt.Errorf("screenshot exceeds %d bytes", app.MaxScreenshotBytes)
	}
	data, err := io.ReadAll(io.LimitReader(f, app.MaxScreenshotBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read screenshot: %w", err)
	}
	ct := hdr.Header.Get("Content-Type")
	if ct == "" {
		ct = http.DetectContentType(data)
	}
	return &domain.Attachment{Filename: hdr.Filename, ContentType: ct, Data: data}, nil
}
