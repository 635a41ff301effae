package config

const (
	// DefaultMaxUploadBytes caps a whole multipart batch upload (32MB).
	DefaultMaxUploadBytes = 32 << 20

	// MaxBatchFiles is the largest number of files accepted in one batch.
	MaxBatchFiles = 50

	// MaxEditsPerRequest bounds the edit list of a preview or approve call.
	MaxEditsPerRequest = 500
)
