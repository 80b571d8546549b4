// Package validator wires the core components together into the host-facing
// entry points: generateGraph, generateGraphV2, a single synchronous
// validation function, and an asynchronous dispatch variant backed by a
// worker pool.
package validator

import (
	"runtime"
	"sync"
	"time"

	"github.com/tos-network/powvalidator/internal/classify"
	"github.com/tos-network/powvalidator/internal/dispatch"
	"github.com/tos-network/powvalidator/internal/graph"
	"github.com/tos-network/powvalidator/internal/hexcodec"
	"github.com/tos-network/powvalidator/internal/share"
)

// GenerateGraph is the legacy bit-stream graph generator, kept for
// backwards compatibility with miners that still speak the V1 protocol.
func GenerateGraph(hashHex string, n int) ([][]bool, error) {
	g, err := graph.GenerateLegacy(hashHex, n)
	if err != nil {
		return nil, err
	}
	return g.Dense(), nil
}

// GenerateGraphV2 is the rejection-sampling graph generator used by the
// worker and queen-bee challenges.
func GenerateGraphV2(hashHex string, n, percentageX10 int) ([][]bool, error) {
	g, err := graph.GenerateV2(hashHex, n, percentageX10)
	if err != nil {
		return nil, err
	}
	return g.Dense(), nil
}

// Submission bundles the hex-encoded fields of one share submission.
type Submission struct {
	BlockData   string
	Nonce       string
	Path        string
	JobTarget   string
	BlockTarget string
	BlockHex    string
}

// ValidateShare runs the full pipeline synchronously and returns the
// resulting verdict. now is the Unix-seconds clock used by the cycle
// verifier's time-gated ground-state check.
func ValidateShare(sub Submission, now int64) *dispatch.Verdict {
	return process(sub, now)
}

func process(sub Submission, now int64) *dispatch.Verdict {
	blockData, err := hexcodec.Decode(sub.BlockData)
	if err != nil {
		return &dispatch.Verdict{Type: "error", Error: "malformed blockData hex"}
	}
	nonce, err := hexcodec.Decode(sub.Nonce)
	if err != nil {
		return &dispatch.Verdict{Type: "error", Error: "malformed nonce hex"}
	}
	path, err := hexcodec.Decode(sub.Path)
	if err != nil {
		return &dispatch.Verdict{Type: "error", Error: "malformed path hex"}
	}

	res := share.Construct(blockData, nonce, path, now)
	if !res.Valid {
		if res.Error == share.ErrInvalidData {
			return &dispatch.Verdict{Type: "error", Error: res.Error}
		}
		return &dispatch.Verdict{Type: "share_rejected", Error: res.Error}
	}

	jobTarget, err := hexcodec.Decode(sub.JobTarget)
	if err != nil {
		return &dispatch.Verdict{Type: "error", Error: "malformed jobTarget hex"}
	}
	blockTarget, err := hexcodec.Decode(sub.BlockTarget)
	if err != nil {
		return &dispatch.Verdict{Type: "error", Error: "malformed blockTarget hex"}
	}
	hashBytes, err := hexcodec.Decode(res.Hash)
	if err != nil {
		return &dispatch.Verdict{Type: "error", Error: "malformed computed hash"}
	}

	verdict := classify.Classify(hashBytes, jobTarget, blockTarget)
	v := &dispatch.Verdict{
		Type:   string(verdict),
		Hash:   res.Hash,
		Target: sub.JobTarget,
		Nonce:  sub.Nonce,
		Path:   sub.Path,
	}
	if verdict == classify.BlockFound {
		v.BlockHexUpdated = classify.SpliceBlock(res.Data, sub.BlockHex)
	}
	return v
}

var (
	poolMu sync.Mutex
	pool   *dispatch.Pool
)

// Init starts (or restarts) the background worker pool used by
// ValidateShareAsync. Calling it is optional: the pool lazily initializes
// itself with a default size on first use.
func Init(workers, queueSize int) {
	poolMu.Lock()
	defer poolMu.Unlock()
	if pool != nil {
		pool.Stop()
	}
	pool = newPool(workers, queueSize)
}

func newPool(workers, queueSize int) *dispatch.Pool {
	return dispatch.NewPool(workers, queueSize, func(job *dispatch.Job) *dispatch.Verdict {
		sub := Submission{
			BlockData:   job.Fields["blockData"],
			Nonce:       job.Fields["nonce"],
			Path:        job.Fields["path"],
			JobTarget:   job.Fields["jobTarget"],
			BlockTarget: job.Fields["blockTarget"],
			BlockHex:    job.Fields["blockHex"],
		}
		return process(sub, time.Now().Unix())
	})
}

func defaultPool() *dispatch.Pool {
	poolMu.Lock()
	defer poolMu.Unlock()
	if pool == nil {
		pool = newPool(runtime.NumCPU(), 1024)
	}
	return pool
}

// PoolStats reports the async worker pool's current queue depth and active
// worker count, for operational surfaces (APM, /v1/stats) to observe
// saturation without reaching into dispatch internals.
func PoolStats() (queueDepth, activeWorkers int) {
	p := defaultPool()
	return p.QueueDepth(), p.ActiveWorkers()
}

// ValidateShareAsync enqueues one validation job on the background worker
// pool and returns a channel that resolves exactly once with the verdict.
func ValidateShareAsync(sub Submission) <-chan *dispatch.Verdict {
	p := defaultPool()
	return p.Submit(dispatch.NewJob(map[string]string{
		"blockData":   sub.BlockData,
		"nonce":       sub.Nonce,
		"path":        sub.Path,
		"jobTarget":   sub.JobTarget,
		"blockTarget": sub.BlockTarget,
		"blockHex":    sub.BlockHex,
	}))
}
