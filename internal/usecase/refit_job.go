package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"RateCast/pkg/logger"
	"RateCast/pkg/queue"
)

const RefitMessageType = "model.refit"

// RefitPayload asks the worker to refit and snapshot the models.
type RefitPayload struct {
	Reason       string `json:"reason"`
	SnapshotName string `json:"snapshot_name"`
}

// RefitJob consumes refit requests from the queue. Refits are queued rather
// than run inline so overlapping requests collapse onto the worker.
type RefitJob struct {
	orch *ForecastOrchestrator
	log  *logger.Logger
}

func NewRefitJob(orch *ForecastOrchestrator, log *logger.Logger) *RefitJob {
	return &RefitJob{orch: orch, log: log}
}

func (j *RefitJob) Type() string { return RefitMessageType }

func (j *RefitJob) Handle(ctx context.Context, payload json.RawMessage) error {
	var p RefitPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("refit payload: %w", err)
	}
	j.log.Info("refit job started", logger.String("reason", p.Reason))

	if err := j.orch.Refit(ctx); err != nil {
		return err
	}
	name := p.SnapshotName
	if name == "" {
		name = "latest"
	}
	if err := j.orch.Snapshot(ctx, name); err != nil {
		return err
	}
	j.log.Info("refit job finished", logger.String("snapshot", name))
	return nil
}

var _ queue.Job = (*RefitJob)(nil)
