// Package id provides unique identifier generation for loop jobs.
package id

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Generate creates a new unique job ID. The ID doubles as the working-file
// token for the request, so it must never collide across concurrent jobs.
// Format: loop-<timestamp>-<random>
// Example: loop-1701432000-a1b2c3d4
func Generate() string {
	random := strings.SplitN(uuid.NewString(), "-", 2)[0]
	return fmt.Sprintf("loop-%d-%s", time.Now().Unix(), random)
}
