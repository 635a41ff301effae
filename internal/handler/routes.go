package handler

import "net/http"

// RegisterRoutes mounts every API route on mux (Go 1.22+ patterns).
func RegisterRoutes(mux *http.ServeMux, records *RecordHandler, batch *BatchHandler) {
	mux.HandleFunc("GET /health", HealthCheck)

	// Ingestion
	mux.HandleFunc("POST /api/documents/batch", batch.UploadBatch)

	// Review
	mux.HandleFunc("GET /api/records", records.ListRecords)
	mux.HandleFunc("DELETE /api/records", records.ClearRecords)
	mux.HandleFunc("GET /api/records/{id}", records.GetRecord)
	mux.HandleFunc("PUT /api/records/{id}", records.SaveDraft)
	mux.HandleFunc("POST /api/records/{id}/preview", records.PreviewEdits)
	mux.HandleFunc("POST /api/records/{id}/approve", records.ApproveRecord)
}
