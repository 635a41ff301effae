// Package lorem is an offline recognizer that returns placeholder
// prescriptions. Used for development and tests without an API key.
package lorem

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	loremgen "github.com/bozaro/golorem"

	"mediscript/internal/domain/models/record"
)

var (
	documentTypes = []string{"New Prescription", "Refill Request", "Transfer Report"}
	forms         = []string{"TAB", "CAP", "SUSP", "CREAM", "INH"}
	strengths     = []string{"5mg", "10mg", "20mg", "250mg", "500mg"}
)

// Recognizer produces schema-valid payloads filled with lorem ipsum text.
type Recognizer struct {
	generator *loremgen.Lorem
	delay     time.Duration
}

// NewRecognizer creates a lorem recognizer that waits delay before each reply.
func NewRecognizer(delay time.Duration) *Recognizer {
	return &Recognizer{
		generator: loremgen.New(),
		delay:     delay,
	}
}

// Name returns the provider name.
func (r *Recognizer) Name() string {
	return "lorem"
}

// Recognize ignores the document content and returns a random draft with
// one to three medication lines.
func (r *Recognizer) Recognize(ctx context.Context, doc record.SourceDocument) ([]byte, error) {
	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	meds := make([]record.MedicationLine, 1+rand.IntN(3))
	for i := range meds {
		meds[i] = record.MedicationLine{
			DrugName:        record.Str(r.title(1)),
			Strength:        record.Str(pick(strengths)),
			Form:            record.Str(pick(forms)),
			SigInstructions: record.Str(r.generator.Sentence(4, 8)),
			Quantity:        record.Str(fmt.Sprint(10 * (1 + rand.IntN(9)))),
			Refills:         record.Str(fmt.Sprint(rand.IntN(4))),
		}
	}

	payload := record.Record{
		DocumentType: pick(documentTypes),
		IssueDate:    record.Str(time.Now().UTC().Format(time.DateOnly)),
		Patient: record.Patient{
			Name:    record.Str(r.title(2)),
			Address: record.Str(r.generator.Sentence(3, 5)),
		},
		Prescriber: record.Prescriber{
			Name:       record.Str("Dr. " + r.title(2)),
			LicenseID:  record.Str(fmt.Sprintf("%05d", rand.IntN(100000))),
			ClinicName: record.Str(r.title(2) + " Clinic"),
		},
		Medications: meds,
		Status:      record.StatusPending,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode lorem payload: %w", err)
	}
	return data, nil
}

// title returns n capitalized lorem words.
func (r *Recognizer) title(n int) string {
	words := make([]string, 0, n)
	for _, w := range strings.Fields(r.generator.Sentence(n+2, n+4)) {
		w = strings.Trim(w, ",.;:")
		if w == "" {
			continue
		}
		words = append(words, strings.ToUpper(w[:1])+strings.ToLower(w[1:]))
		if len(words) == n {
			break
		}
	}
	return strings.Join(words, " ")
}

func pick(values []string) string {
	return values[rand.IntN(len(values))]
}
