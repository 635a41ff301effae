package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"mediscript/internal/config"
	"mediscript/internal/domain/models/record"
	"mediscript/internal/domain/services"
	"mediscript/internal/handler/sse"
	"mediscript/internal/httputil"
)

// multipartMemory is how much of an upload is held in memory before spilling
// to temporary files.
const multipartMemory = 8 << 20

// BatchHandler accepts document uploads and runs them through ingestion.
type BatchHandler struct {
	ingest         services.IngestService
	maxUploadBytes int64
	sseConfig      *sse.Config
	logger         *slog.Logger
}

// NewBatchHandler creates a batch handler. A nil sseConfig uses sse.DefaultConfig.
func NewBatchHandler(ingest services.IngestService, maxUploadBytes int64, sseConfig *sse.Config, logger *slog.Logger) *BatchHandler {
	if sseConfig == nil {
		sseConfig = sse.DefaultConfig()
	}
	if maxUploadBytes <= 0 {
		maxUploadBytes = config.DefaultMaxUploadBytes
	}
	return &BatchHandler{
		ingest:         ingest,
		maxUploadBytes: maxUploadBytes,
		sseConfig:      sseConfig,
		logger:         logger,
	}
}

// batchOutcome is the final payload of a batch, streamed or not.
type batchOutcome struct {
	*services.BatchResult
	Error string `json:"error,omitempty"`
}

// UploadBatch ingests the uploaded files
// POST /api/documents/batch (multipart, field "files")
// With Accept: text/event-stream, progress is streamed as "progress" events
// followed by one "result" event.
func (h *BatchHandler) UploadBatch(w http.ResponseWriter, r *http.Request) {
	docs, status, err := h.readUploads(w, r)
	if err != nil {
		httputil.RespondError(w, status, err.Error())
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "text/event-stream") {
		h.stream(w, r, docs)
		return
	}

	result, err := h.ingest.Run(r.Context(), docs, nil)
	if err != nil {
		h.respondBatchError(w, result, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, result)
}

func (h *BatchHandler) stream(w http.ResponseWriter, r *http.Request, docs []record.SourceDocument) {
	writer, err := sse.NewWriter(w, uuid.NewString())
	if err != nil {
		httputil.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.logger.Info("batch stream opened",
		"client_id", writer.ClientID(),
		"documents", len(docs),
	)

	keepAlive := sse.NewTickerKeepAlive(h.sseConfig.KeepAliveInterval)
	stopped := keepAlive.Start(writer, h.logger)
	defer func() {
		keepAlive.Stop()
		<-stopped
	}()

	result, runErr := h.ingest.Run(r.Context(), docs, func(p services.Progress) {
		if err := writer.WriteEvent("progress", p); err != nil {
			h.logger.Warn("failed to write progress event",
				"client_id", writer.ClientID(),
				"error", err,
			)
		}
	})

	outcome := batchOutcome{BatchResult: result}
	if runErr != nil {
		outcome.Error = runErr.Error()
	}
	if err := writer.WriteEvent("result", outcome); err != nil {
		h.logger.Warn("failed to write result event",
			"client_id", writer.ClientID(),
			"error", err,
		)
	}
}

func (h *BatchHandler) respondBatchError(w http.ResponseWriter, result *services.BatchResult, err error) {
	var batchErr *services.BatchError
	if !errors.As(err, &batchErr) {
		handleError(w, err)
		return
	}

	extras := map[string]any{
		"policy":    batchErr.Policy,
		"total":     batchErr.Total,
		"succeeded": batchErr.Succeeded,
		"failures":  batchErr.Failures,
	}
	if result != nil {
		extras["records"] = result.Records
		extras["skipped"] = result.Skipped
	}
	httputil.RespondErrorWithExtras(w, batchErr.StatusCode(), err.Error(), extras)
}

// readUploads parses the multipart body. The returned status is meaningful
// only when err is non-nil.
func (h *BatchHandler) readUploads(w http.ResponseWriter, r *http.Request) ([]record.SourceDocument, int, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			return nil, http.StatusRequestEntityTooLarge, fmt.Errorf("upload exceeds %d bytes", h.maxUploadBytes)
		}
		return nil, http.StatusBadRequest, fmt.Errorf("invalid multipart body: %w", err)
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		return nil, http.StatusBadRequest, errors.New(`no files uploaded in field "files"`)
	}
	if len(headers) > config.MaxBatchFiles {
		return nil, http.StatusBadRequest, fmt.Errorf("at most %d files per batch", config.MaxBatchFiles)
	}

	docs := make([]record.SourceDocument, 0, len(headers))
	for _, fh := range headers {
		data, err := readPart(fh)
		if err != nil {
			return nil, http.StatusBadRequest, fmt.Errorf("read %s: %w", fh.Filename, err)
		}
		docs = append(docs, record.SourceDocument{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return docs, 0, nil
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// HealthCheck reports liveness
// GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
