package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediscript/internal/domain"
	"mediscript/internal/domain/models/record"
)

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding space", "  \n```json\n{\"a\":1}\n```\n ", `{"a":1}`},
		{"unterminated", "```json\n{\"a\":1}", `{"a":1}`},
		{"empty fence", "```", ""},
		{"blank", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripFences(tt.in); got != tt.want {
				t.Errorf("StripFences(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

type capturedRequest struct {
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	System      []struct {
		Text string `json:"text"`
	} `json:"system"`
	Messages []struct {
		Role    string `json:"role"`
		Content []struct {
			Type   string `json:"type"`
			Source struct {
				Type      string `json:"type"`
				MediaType string `json:"media_type"`
			} `json:"source"`
		} `json:"content"`
	} `json:"messages"`
}

func fakeMessagesServer(t *testing.T, text string, captured *capturedRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		if captured != nil {
			require.NoError(t, json.Unmarshal(body, captured))
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":            "msg_test",
			"type":          "message",
			"role":          "assistant",
			"model":         "claude-test",
			"stop_reason":   "end_turn",
			"stop_sequence": nil,
			"content":       []map[string]any{{"type": "text", "text": text}},
			"usage":         map[string]any{"input_tokens": 10, "output_tokens": 20},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestRecognizer(t *testing.T, srv *httptest.Server) *Recognizer {
	t.Helper()
	r, err := NewRecognizer("test-key", "claude-test", 1024, slog.New(slog.NewTextHandler(io.Discard, nil)),
		option.WithBaseURL(srv.URL),
		option.WithMaxRetries(0),
	)
	require.NoError(t, err)
	return r
}

func TestRecognizeSendsPDFAndUnwrapsFence(t *testing.T) {
	var captured capturedRequest
	srv := fakeMessagesServer(t, "```json\n{\"document_type\":\"prescription\"}\n```", &captured)
	r := newTestRecognizer(t, srv)

	out, err := r.Recognize(context.Background(), record.SourceDocument{
		Name:        "rx.pdf",
		ContentType: "application/pdf",
		Data:        []byte("%PDF-1.4 test"),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"document_type":"prescription"}`, string(out))

	assert.Equal(t, "claude-test", captured.Model)
	assert.InDelta(t, 0.1, captured.Temperature, 1e-9)
	require.Len(t, captured.System, 1)
	assert.Contains(t, captured.System[0].Text, "Amoxicillin")
	require.Len(t, captured.Messages, 1)
	require.Len(t, captured.Messages[0].Content, 2)
	assert.Equal(t, "document", captured.Messages[0].Content[0].Type)
	assert.Equal(t, "application/pdf", captured.Messages[0].Content[0].Source.MediaType)
	assert.Equal(t, "text", captured.Messages[0].Content[1].Type)
}

func TestRecognizeEmptyReply(t *testing.T) {
	srv := fakeMessagesServer(t, "  ", nil)
	r := newTestRecognizer(t, srv)

	_, err := r.Recognize(context.Background(), record.SourceDocument{
		Name:        "blank.pdf",
		ContentType: "application/pdf",
		Data:        []byte("%PDF-1.4"),
	})
	var extractionErr *domain.ExtractionError
	require.True(t, errors.As(err, &extractionErr))
	assert.Equal(t, domain.ExtractionEmptyResponse, extractionErr.Kind)
}

func TestRecognizeUnsupportedType(t *testing.T) {
	srv := fakeMessagesServer(t, "{}", nil)
	r := newTestRecognizer(t, srv)

	_, err := r.Recognize(context.Background(), record.SourceDocument{Name: "a.txt", ContentType: "text/plain"})
	assert.Error(t, err)
}

func TestNewRecognizerRequiresKey(t *testing.T) {
	_, err := NewRecognizer("", "claude-test", 0, slog.Default())
	assert.Error(t, err)
}
