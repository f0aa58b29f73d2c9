package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/calibancode/gifforge/internal/adapter/http/validation"
	"github.com/calibancode/gifforge/internal/deps"
	"github.com/calibancode/gifforge/internal/domain"
	"github.com/calibancode/gifforge/internal/infrastructure/logger"
)

// ConversionService is the slice of the service layer the API needs.
type ConversionService interface {
	Probe(ctx context.Context, path string) (*domain.SourceMedia, error)
	StartConversion(ctx context.Context, inputPath, outputPath string, params domain.ConversionParameters) (*domain.ConversionJob, error)
	Cancel(jobID string) error
	Job(jobID string) (domain.JobView, error)
	History(limit int) ([]domain.HistoryRecord, error)
}

type Handlers struct {
	convSvc      ConversionService
	defaults     domain.ConversionParameters
	uploadDir    string
	maxSizeMB    int
	requirements []deps.Requirement
}

func NewHandlers(convSvc ConversionService, defaults domain.ConversionParameters, uploadDir string, maxSizeMB int, requirements []deps.Requirement) *Handlers {
	return &Handlers{
		convSvc:      convSvc,
		defaults:     defaults,
		uploadDir:    uploadDir,
		maxSizeMB:    maxSizeMB,
		requirements: requirements,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeServiceError maps domain errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	var probeErr *domain.ProbeError
	switch {
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &probeErr):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrJobActive):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "job not found")
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// CreateJob accepts a multipart upload with conversion parameters and starts
// a job. The response is the initial job snapshot; progress streams over
// /api/events/{id}.
func (h *Handlers) CreateJob() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		maxBytes := int64(h.maxSizeMB) * 1024 * 1024
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

		if err := r.ParseMultipartForm(maxBytes); err != nil {
			writeError(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "missing file field")
			return
		}
		defer file.Close() //nolint:errcheck

		mime, allowed, err := validation.ValidateMagicBytes(file)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to inspect upload")
			return
		}
		if !allowed {
			writeError(w, http.StatusUnsupportedMediaType, "unsupported upload type "+mime)
			return
		}

		params := h.defaults
		format, err := parseParams(r, &params)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		inputPath, outputPath, err := h.stageUpload(file, header.Filename, format)
		if err != nil {
			logger.Error.Printf("stage upload %s: %v", header.Filename, err)
			writeError(w, http.StatusInternalServerError, "failed to save upload")
			return
		}

		// The job outlives the request: detach from the request context so
		// responding does not kill the external processes.
		job, err := h.convSvc.StartConversion(context.WithoutCancel(r.Context()), inputPath, outputPath, params)
		if err != nil {
			_ = os.Remove(inputPath)
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusAccepted, job.View())
	}
}

// stageUpload copies the upload into the data directory and returns the
// input and output paths for the job. Output names keep the upload's stem so
// downloads read naturally.
func (h *Handlers) stageUpload(file io.Reader, filename string, format domain.OutputFormat) (string, string, error) {
	if err := os.MkdirAll(h.uploadDir, 0755); err != nil {
		return "", "", err
	}

	sanitized := validation.SanitizeFilename(filename)
	stem := strings.TrimSuffix(sanitized, filepath.Ext(sanitized))
	token := uuid.NewString()[:8]

	inputPath := filepath.Join(h.uploadDir, stem+"-"+token+filepath.Ext(sanitized))
	outputPath := filepath.Join(h.uploadDir, stem+"-"+token+"."+string(format))

	dst, err := os.Create(inputPath)
	if err != nil {
		return "", "", err
	}
	defer dst.Close() //nolint:errcheck

	if _, err := io.Copy(dst, file); err != nil {
		_ = os.Remove(inputPath)
		return "", "", err
	}
	return inputPath, outputPath, nil
}

// parseParams applies the form's conversion fields onto params and returns
// the requested output format.
func parseParams(r *http.Request, params *domain.ConversionParameters) (domain.OutputFormat, error) {
	format := domain.FormatGIF
	if v := r.FormValue("format"); v != "" {
		format = domain.OutputFormat(strings.ToLower(v))
	}
	if err := params.SetFormat(format); err != nil {
		return "", err
	}

	intFields := []struct {
		name string
		set  func(int) error
	}{
		{"fps", params.SetFPS},
		{"width", params.SetWidth},
		{"height", params.SetHeight},
		{"quality", params.SetWebPQuality},
		{"compression", params.SetWebPCompression},
	}
	for _, f := range intFields {
		v := r.FormValue(f.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return "", &domain.ValidationError{Field: f.name, Reason: "must be an integer"}
		}
		if err := f.set(n); err != nil {
			return "", err
		}
	}

	if v := r.FormValue("speed"); v != "" {
		speed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return "", &domain.ValidationError{Field: "speed", Reason: "must be a number"}
		}
		if err := params.SetSpeedMultiplier(speed); err != nil {
			return "", err
		}
	}
	if v := r.FormValue("palette"); v != "" {
		if err := params.SetPaletteMode(v); err != nil {
			return "", err
		}
	}
	if v := r.FormValue("dither"); v != "" {
		if err := params.SetDither(v); err != nil {
			return "", err
		}
	}
	if v := r.FormValue("lossless"); v != "" {
		lossless, err := strconv.ParseBool(v)
		if err != nil {
			return "", &domain.ValidationError{Field: "lossless", Reason: "must be a boolean"}
		}
		if err := params.SetWebPLossless(lossless); err != nil {
			return "", err
		}
	}
	if v := r.FormValue("loop"); v != "" {
		loop, err := strconv.ParseBool(v)
		if err != nil {
			return "", &domain.ValidationError{Field: "loop", Reason: "must be a boolean"}
		}
		params.Loop = loop
	}

	return format, nil
}

// JobStatus returns the current snapshot of a job, active or archived.
func (h *Handlers) JobStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := h.convSvc.Job(r.PathValue("id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

// CancelJob requests termination of the active job. Cancellation is
// asynchronous; the terminal state arrives over the event stream.
func (h *Handlers) CancelJob() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if err := h.convSvc.Cancel(id); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"id": id, "status": "cancelling"})
	}
}

// Download serves the converted output of a completed job.
func (h *Handlers) Download() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := h.convSvc.Job(r.PathValue("id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if view.State != domain.StateCompleted {
			writeError(w, http.StatusConflict, "job is "+string(view.State))
			return
		}

		w.Header().Set("Content-Type", formatMIMEType(view.Format))
		w.Header().Set("Content-Disposition", validation.ContentDisposition(filepath.Base(view.Output), false))
		http.ServeFile(w, r, view.Output)
	}
}

func formatMIMEType(format domain.OutputFormat) string {
	if format == domain.FormatWebP {
		return "image/webp"
	}
	return "image/gif"
}

type historyEntry struct {
	ID         string              `json:"id"`
	Input      string              `json:"input"`
	Output     string              `json:"output"`
	Format     domain.OutputFormat `json:"format"`
	State      domain.JobState     `json:"state"`
	Cause      string              `json:"cause,omitempty"`
	Frames     int                 `json:"frames"`
	Duration   float64             `json:"duration"`
	CreatedAt  time.Time           `json:"created_at"`
	FinishedAt time.Time           `json:"finished_at"`
}

// History lists archived jobs, newest first. The limit query parameter caps
// the result; the store applies its default when absent.
func (h *Handlers) History() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		records, err := h.convSvc.History(limit)
		if err != nil {
			logger.Error.Printf("history list: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to list history")
			return
		}

		entries := make([]historyEntry, 0, len(records))
		for _, rec := range records {
			entries = append(entries, historyEntry{
				ID:         rec.ID,
				Input:      rec.Input,
				Output:     rec.Output,
				Format:     rec.Format,
				State:      rec.State,
				Cause:      rec.Cause,
				Frames:     rec.Frames,
				Duration:   rec.Duration,
				CreatedAt:  rec.CreatedAt,
				FinishedAt: rec.FinishedAt,
			})
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

type depStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Path        string `json:"path,omitempty"`
	Detail      string `json:"detail,omitempty"`
}

// Deps reports the availability of the external tools.
func (h *Handlers) Deps() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		statuses := deps.Check(h.requirements)
		out := make([]depStatus, 0, len(statuses))
		for _, s := range statuses {
			out = append(out, depStatus{
				Name:        s.Name,
				Command:     s.Command,
				Description: s.Description,
				Optional:    s.Optional,
				Available:   s.Available,
				Path:        s.Path,
				Detail:      s.Detail,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}
