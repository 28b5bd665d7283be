package utils

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// GenerateRunID generates a run ID with a timestamp prefix, e.g.
// "run-20260114-093055-1a2b3c4d". The suffix is the short form of a
// random UUID so concurrent runs in the same second stay distinct.
func GenerateRunID() string {
	timestamp := time.Now().Format("20060102-150405")
	id := uuid.NewString()
	return fmt.Sprintf("run-%s-%s", timestamp, id[:8])
}
