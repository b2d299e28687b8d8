package handlers

import (
	"errors"
	"io"
	"io/fs"
	"net/http"
	"os"

	"github.com/stockcast/stockcast/internal/forecast"
	"github.com/stockcast/stockcast/internal/httputil"
	"github.com/stockcast/stockcast/internal/logger"
)

type ForecastHandler struct {
	client      *forecast.Client
	uploadDir   string
	maxFileSize int64
	log         *logger.Logger
}

func NewForecastHandler(client *forecast.Client, uploadDir string, maxFileSize int64) *ForecastHandler {
	return &ForecastHandler{
		client:      client,
		uploadDir:   uploadDir,
		maxFileSize: maxFileSize,
		log:         logger.New("forecast-handler"),
	}
}

type forecastError struct {
	Error string `json:"error"`
}

// Process accepts one multipart upload under field name "file", forwards
// it to the forecasting service and relays the JSON reply. The temp file
// is removed on every path before the response is written.
func (h *ForecastHandler) Process(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxFileSize)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			httputil.RespondJSON(w, http.StatusBadRequest, forecastError{Error: "Uploaded file is too large."})
			return
		}
		httputil.RespondJSON(w, http.StatusBadRequest, forecastError{Error: "No file uploaded."})
		return
	}
	defer file.Close()

	tmpPath, err := h.saveUpload(file)
	if err != nil {
		h.log.Error("Failed to store upload: %v", err)
		httputil.RespondJSON(w, http.StatusInternalServerError, forecastError{Error: "Failed to process forecast request."})
		return
	}
	defer h.removeUpload(tmpPath)

	body, err := h.client.Forward(r.Context(), tmpPath, header.Filename)
	if err != nil {
		var upstreamErr *forecast.UpstreamError
		if errors.As(err, &upstreamErr) {
			h.log.Error("Forecast upstream rejected file: %v", upstreamErr)
		} else {
			h.log.Error("Forecast forwarding failed: %v", err)
		}
		// Temp file goes first, then the response.
		h.removeUpload(tmpPath)
		httputil.RespondJSON(w, http.StatusInternalServerError, forecastError{Error: "Failed to process forecast request."})
		return
	}

	h.removeUpload(tmpPath)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func (h *ForecastHandler) saveUpload(file io.Reader) (string, error) {
	tmp, err := os.CreateTemp(h.uploadDir, "upload-*")
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		h.removeUpload(tmp.Name())
		return "", err
	}

	if err := tmp.Close(); err != nil {
		h.removeUpload(tmp.Name())
		return "", err
	}

	return tmp.Name(), nil
}

// removeUpload deletes the temp file. An already-removed file is fine,
// so double calls (explicit plus deferred) stay harmless.
func (h *ForecastHandler) removeUpload(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		h.log.Warn("Failed to remove temp file %s: %v", path, err)
	}
}
