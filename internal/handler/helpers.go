package handler

import (
	"errors"
	"net/http"

	"mediscript/internal/domain"
	"mediscript/internal/httputil"
)

// handleError converts domain errors to problem responses
func handleError(w http.ResponseWriter, err error) {
	var (
		httpErr   domain.HTTPError
		schemaErr *domain.SchemaError
		editorErr *domain.EditorError
		gateErr   *domain.GateError
		storeErr  *domain.StoreError
	)

	switch {
	case errors.As(err, &schemaErr):
		extras := map[string]any{"kind": schemaErr.Kind, "field": schemaErr.Field}
		if schemaErr.Index >= 0 {
			extras["index"] = schemaErr.Index
		}
		httputil.RespondErrorWithExtras(w, http.StatusBadRequest, err.Error(), extras)
	case errors.As(err, &editorErr):
		httputil.RespondErrorWithExtras(w, editorErr.StatusCode(), err.Error(), map[string]any{"kind": editorErr.Kind})
	case errors.As(err, &gateErr):
		httputil.RespondErrorWithExtras(w, gateErr.StatusCode(), err.Error(), map[string]any{"kind": gateErr.Kind, "record_id": gateErr.RecordID})
	case errors.As(err, &storeErr):
		status := storeErr.StatusCode()
		detail := err.Error()
		if status == http.StatusInternalServerError {
			detail = "stored records could not be read"
		}
		httputil.RespondErrorWithExtras(w, status, detail, map[string]any{"kind": storeErr.Kind})
	case errors.As(err, &httpErr):
		httputil.RespondError(w, httpErr.StatusCode(), err.Error())
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		httputil.RespondError(w, http.StatusForbidden, err.Error())
	default:
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// PathParam reads a required path value, responding 400 when it is blank.
func PathParam(w http.ResponseWriter, r *http.Request, name, label string) (string, bool) {
	value := r.PathValue(name)
	if value == "" {
		httputil.RespondError(w, http.StatusBadRequest, label+" is required")
		return "", false
	}
	return value, true
}
