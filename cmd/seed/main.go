package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"mediscript/internal/config"
	"mediscript/internal/domain/models/record"
	"mediscript/internal/repository"
	"mediscript/internal/service/recognition/lorem"
	"mediscript/internal/service/recognition/prompts"
	recordsvc "mediscript/internal/service/record"

	"github.com/joho/godotenv"
)

func main() {
	clearData := flag.Bool("clear", false, "Delete all records before seeding")
	count := flag.Int("count", 5, "Number of generated records to add after the worked example")
	flag.Parse()

	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// SAFETY: seeding writes sample patients into the record store
	if cfg.Environment == "prod" {
		log.Fatalf("🚫 BLOCKED: Cannot seed sample records in production environment")
	}

	logger, closeLog, err := config.NewLogger(cfg, os.Stdout)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer closeLog()

	ctx := context.Background()
	store, err := repository.OpenStore(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open record store: %v", err)
	}
	defer store.Close()

	log.Printf("🌱 Seeding records (environment: %s, backend: %s, key: %s)", cfg.Environment, cfg.StorageBackend, store.Key())

	if *clearData {
		log.Println("🧹 Clearing existing records...")
		if err := store.Clear(ctx); err != nil {
			log.Fatalf("Failed to clear records: %v", err)
		}
	}

	payloads, err := samplePayloads(ctx, *count)
	if err != nil {
		log.Fatalf("Failed to build sample records: %v", err)
	}

	seeded := 0
	for _, raw := range payloads {
		draft, err := recordsvc.Adapt(raw, time.Now().UTC())
		if err != nil {
			log.Printf("Warning: skipping invalid sample: %v", err)
			continue
		}
		stored, err := store.Upsert(ctx, draft)
		if err != nil {
			log.Fatalf("Failed to store record: %v", err)
		}
		log.Printf("  ✓ %s %s (%s)", stored.ID, stored.DocumentType, patientName(stored))
		seeded++
	}

	log.Printf("✅ Seeded %d records", seeded)
}

// samplePayloads returns the worked prompt example followed by count
// generated payloads.
func samplePayloads(ctx context.Context, count int) ([][]byte, error) {
	prompt, err := prompts.Extraction()
	if err != nil {
		return nil, err
	}

	payloads := [][]byte{[]byte(prompt.Example.Output)}
	generator := lorem.NewRecognizer(0)
	for i := 0; i < count; i++ {
		raw, err := generator.Recognize(ctx, record.SourceDocument{})
		if err != nil {
			return nil, err
		}
		payloads = append(payloads, raw)
	}
	return payloads, nil
}

func patientName(r *record.Record) string {
	if r.Patient.Name == nil {
		return "unknown patient"
	}
	return *r.Patient.Name
}
