package services

import (
	"context"

	"mediscript/internal/domain/models/record"
)

// Recognizer turns one source document into the raw JSON payload of the
// recognition service. A nil or empty payload means nothing was recognized.
type Recognizer interface {
	Recognize(ctx context.Context, doc record.SourceDocument) ([]byte, error)

	// Name identifies the provider in logs.
	Name() string
}
