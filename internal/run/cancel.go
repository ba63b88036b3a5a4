package run

import (
	"context"
	"sync"

	"github.com/mattjoyce/fleetfix/internal/dispatcher"
	"github.com/mattjoyce/fleetfix/internal/remediation"
)

// CancelPlaybookRun issues one cancel instruction per running executor.
// Best effort: instructions go out concurrently, nothing waits for the
// executors to actually stop, and individual failures are logged rather
// than surfaced. The caller must have treated an empty executor set as
// not-found before getting here.
func (s *Service) CancelPlaybookRun(ctx context.Context, account, runID string, executors []remediation.RunExecutor) {
	var wg sync.WaitGroup
	for _, e := range executors {
		wg.Add(1)
		go func(e remediation.RunExecutor) {
			defer wg.Done()
			req := dispatcher.CancelRequest{
				Account:   account,
				Recipient: e.ExecutorID,
				RunID:     runID,
			}
			if err := s.client.PostCancel(ctx, []dispatcher.CancelRequest{req}); err != nil {
				s.logger.Warn("cancel instruction failed",
					"playbook_run_id", runID, "executor", e.ExecutorID, "error", err)
			}
		}(e)
	}
	wg.Wait()

	s.logger.Info("playbook run cancel issued",
		"playbook_run_id", runID, "executors", len(executors))
}
