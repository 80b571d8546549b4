// Package powvalidator re-exports the host-facing entry points of
// internal/validator at the module root, for embedders that want an
// in-process binding instead of the internal/api HTTP surface.
package powvalidator

import (
	"github.com/tos-network/powvalidator/internal/dispatch"
	"github.com/tos-network/powvalidator/internal/validator"
)

// Submission bundles the hex-encoded fields of one share submission.
type Submission = validator.Submission

// Verdict is the outcome of classifying a submission.
type Verdict = dispatch.Verdict

// GenerateGraph is the legacy bit-stream graph generator.
func GenerateGraph(hashHex string, n int) ([][]bool, error) {
	return validator.GenerateGraph(hashHex, n)
}

// GenerateGraphV2 is the rejection-sampling graph generator.
func GenerateGraphV2(hashHex string, n, percentageX10 int) ([][]bool, error) {
	return validator.GenerateGraphV2(hashHex, n, percentageX10)
}

// ValidateShareAsync enqueues one validation job on the background worker
// pool and returns a channel that resolves exactly once with the verdict.
func ValidateShareAsync(sub Submission) <-chan *Verdict {
	return validator.ValidateShareAsync(sub)
}

// Init starts (or restarts) the background worker pool used by
// ValidateShareAsync.
func Init(workers, queueSize int) {
	validator.Init(workers, queueSize)
}
