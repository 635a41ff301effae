package ingest

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"mediscript/internal/domain/models/record"
	"mediscript/internal/domain/services"
)

const (
	maxArchiveMembers = 200
	maxMemberBytes    = 32 << 20
)

// expandArchives replaces zip uploads with their members, in archive order.
// Member names are prefixed with the archive name ("batch.zip/rx/a.pdf").
// Nested archives are not opened; they fall through to the PDF filter.
func expandArchives(docs []record.SourceDocument) ([]record.SourceDocument, []services.SkippedDocument) {
	out := make([]record.SourceDocument, 0, len(docs))
	skipped := []services.SkippedDocument{}

	for _, doc := range docs {
		if !isZip(doc) {
			out = append(out, doc)
			continue
		}

		reader, err := zip.NewReader(bytes.NewReader(doc.Data), int64(len(doc.Data)))
		if err != nil {
			skipped = append(skipped, services.SkippedDocument{
				Document:    doc.Name,
				ContentType: "application/zip",
				Reason:      "unreadable zip archive: " + err.Error(),
			})
			continue
		}

		members := 0
		for _, entry := range reader.File {
			if entry.FileInfo().IsDir() || isJunkEntry(entry.Name) {
				continue
			}
			name := path.Join(doc.Name, entry.Name)

			if members == maxArchiveMembers {
				skipped = append(skipped, services.SkippedDocument{
					Document: name,
					Reason:   fmt.Sprintf("archive holds more than %d documents", maxArchiveMembers),
				})
				continue
			}
			if entry.UncompressedSize64 > maxMemberBytes {
				skipped = append(skipped, services.SkippedDocument{
					Document: name,
					Reason:   fmt.Sprintf("archive member larger than %d bytes", maxMemberBytes),
				})
				continue
			}

			data, err := readEntry(entry)
			if err != nil {
				skipped = append(skipped, services.SkippedDocument{Document: name, Reason: err.Error()})
				continue
			}

			members++
			out = append(out, record.SourceDocument{Name: name, Data: data})
		}
	}
	return out, skipped
}

func readEntry(entry *zip.File) ([]byte, error) {
	rc, err := entry.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open archive member: %w", err)
	}
	defer rc.Close()

	// The header size can lie; cap the actual read too.
	data, err := io.ReadAll(io.LimitReader(rc, maxMemberBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read archive member: %w", err)
	}
	if len(data) > maxMemberBytes {
		return nil, fmt.Errorf("archive member larger than %d bytes", maxMemberBytes)
	}
	return data, nil
}

func isZip(doc record.SourceDocument) bool {
	switch DetectContentType(doc) {
	case "application/zip", "application/x-zip-compressed":
		return true
	}
	return strings.EqualFold(filepath.Ext(doc.Name), ".zip")
}

// isJunkEntry reports archiver metadata such as __MACOSX/ forks and dotfiles.
func isJunkEntry(name string) bool {
	if strings.HasPrefix(name, "__MACOSX/") {
		return true
	}
	return strings.HasPrefix(path.Base(name), ".")
}
