package domain

import (
	"strings"

	"github.com/google/uuid"
)

// NewJobID generates a client-side job ID. Job IDs may only contain
// letters, digits, dashes and underscores.
func NewJobID() string {
	return "job_" + strings.ReplaceAll(uuid.Must(uuid.NewV7()).String(), "-", "_")
}
