package render

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jonathan/resume-pipeline/internal/blob"
	"github.com/jonathan/resume-pipeline/internal/types"
)

// failReasonLimit bounds the error message stored on a failed job.
const failReasonLimit = 2000

func (s *Scheduler) workerLoop(ctx context.Context, workerID string) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		job, err := s.store.ClaimRenderJob(ctx, workerID, s.cfg.Lease)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Printf("[render] worker=%s claim failed: %v", workerID, err)
			if !sleep(ctx, s.cfg.PollInterval) {
				return nil
			}
			continue
		}
		if job == nil {
			if !sleep(ctx, s.cfg.PollInterval) {
				return nil
			}
			continue
		}
		s.process(ctx, workerID, job)
	}
}

// process runs one claimed job end to end. Render failures are recorded
// on the job, never returned: a bad document must not take the worker
// down with it.
func (s *Scheduler) process(ctx context.Context, workerID string, job *types.RenderJob) {
	latex, err := s.store.LatexSource(ctx, job.ResumeID)
	if err != nil {
		s.fail(ctx, job, fmt.Sprintf("failed to load latex source: %v", err))
		return
	}

	pdf, logOutput, err := s.typesetter.Typeset(ctx, latex)
	if err != nil {
		// Typesetting is deterministic over the stored source, so a
		// compile failure is final; requeueing would fail the same way.
		s.fail(ctx, job, failReason(err, logOutput))
		return
	}

	key := blob.PDFKey(job.ResumeID, job.ID)
	if err := s.blobs.Put(ctx, key, pdf); err != nil {
		s.fail(ctx, job, fmt.Sprintf("failed to store pdf artifact: %v", err))
		return
	}

	applied, err := s.store.CompleteRenderJob(ctx, job.ID, job.Attempt, key)
	if err != nil {
		log.Printf("[render] worker=%s job=%s completion failed: %v", workerID, job.ID, err)
		return
	}
	if !applied {
		log.Printf("[render] worker=%s job=%s attempt=%d superseded, result discarded",
			workerID, job.ID, job.Attempt)
		return
	}
	log.Printf("[render] worker=%s job=%s resume=%s rendered (%d bytes)",
		workerID, job.ID, job.ResumeID, len(pdf))
}

func (s *Scheduler) fail(ctx context.Context, job *types.RenderJob, reason string) {
	applied, err := s.store.FailRenderJob(ctx, job.ID, job.Attempt, reason)
	if err != nil {
		log.Printf("[render] job=%s failure report errored: %v", job.ID, err)
		return
	}
	if !applied {
		log.Printf("[render] job=%s attempt=%d stale failure report discarded", job.ID, job.Attempt)
		return
	}
	log.Printf("[render] job=%s attempt=%d failed: %s", job.ID, job.Attempt, firstLine(reason))
}

// failReason folds the compiler log tail into the stored reason so the
// job record is diagnosable without shell access to the worker.
func failReason(err error, logOutput string) string {
	reason := err.Error()
	if logOutput != "" {
		reason = reason + "\n" + logTail(logOutput, failReasonLimit-len(reason)-1)
	}
	if len(reason) > failReasonLimit {
		reason = reason[:failReasonLimit]
	}
	return reason
}

func logTail(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// sleep waits for d, returning false if the context was cancelled first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
