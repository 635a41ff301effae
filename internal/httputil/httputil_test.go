package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestOptionalString(t *testing.T) {
	type body struct {
		Value OptionalString `json:"value"`
	}

	tests := []struct {
		name        string
		input       string
		wantPresent bool
		wantNil     bool
		want        string
	}{
		{"absent", `{}`, false, true, ""},
		{"null", `{"value": null}`, true, true, ""},
		{"empty", `{"value": ""}`, true, false, ""},
		{"text", `{"value": "500mg"}`, true, false, "500mg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b body
			if err := json.Unmarshal([]byte(tt.input), &b); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if b.Value.Present != tt.wantPresent {
				t.Errorf("Present = %v, want %v", b.Value.Present, tt.wantPresent)
			}
			if (b.Value.Value == nil) != tt.wantNil {
				t.Fatalf("Value nil = %v, want %v", b.Value.Value == nil, tt.wantNil)
			}
			if b.Value.Value != nil && *b.Value.Value != tt.want {
				t.Errorf("Value = %q, want %q", *b.Value.Value, tt.want)
			}
		})
	}

	var b body
	if err := json.Unmarshal([]byte(`{"value": 5}`), &b); err == nil {
		t.Error("expected error for non-string value")
	}
}

func TestParseJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"name": "x"}`, false},
		{"empty", ``, true},
		{"unknown field", `{"nmae": "x"}`, true},
		{"trailing", `{"name": "x"} {}`, true},
		{"malformed", `{"name":`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var p payload
			err := ParseJSON(httptest.NewRecorder(), r, &p)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseJSON() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRespondErrorWithExtras(t *testing.T) {
	w := httptest.NewRecorder()
	RespondErrorWithExtras(w, http.StatusConflict, "record is approved", map[string]any{"record_id": "r1"})

	if w.Code != http.StatusConflict {
		t.Errorf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var got map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["record_id"] != "r1" || got["detail"] != "record is approved" || got["title"] != "Conflict" {
		t.Errorf("body = %v", got)
	}
}

func TestReviewerIDContext(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := GetReviewerID(r); got != "" {
		t.Errorf("GetReviewerID() = %q, want empty", got)
	}
	r = WithReviewerID(r, "rph-1")
	if got := GetReviewerID(r); got != "rph-1" {
		t.Errorf("GetReviewerID() = %q", got)
	}
}
