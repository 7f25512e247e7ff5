package engine

import "time"

// sweepLoop periodically evicts terminal jobs older than the retention
// window. It runs independently of the worker pool and never touches
// non-terminal jobs, so it cannot race a worker mid-execution.
func (e *Engine) sweepLoop() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.stopCh:
			e.logger.Debug("sweeper stopped")
			return
		case <-ticker.C:
			e.sweepOnce()
		}
	}
}

func (e *Engine) sweepOnce() {
	evicted, err := e.store.Sweep(e.baseCtx, e.retention)
	if err != nil {
		e.logger.Error("retention sweep", "error", err)
		return
	}

	// Evicted jobs take their progress topics with them; otherwise the
	// broker's closed-topic markers would outlive the retention window.
	for _, id := range evicted {
		e.broker.Remove(id)
	}

	jobsSwept.Add(float64(len(evicted)))

	if len(evicted) > 0 {
		e.logger.Info("retention sweep evicted jobs", "evicted", len(evicted), "retention", e.retention.String())
	} else {
		e.logger.Debug("retention sweep found nothing to evict")
	}
}
