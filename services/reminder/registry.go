package reminder

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"carelink/models"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// TypeSendReminder is the asynq task type for a medication reminder.
const TypeSendReminder = "reminder:send"

// ownedTaskPrefix is the private marker on task IDs. CancelOwned only ever
// touches tasks carrying it, so other producers on the same queue are safe.
const ownedTaskPrefix = "carelink:reminder:"

// PermissionFunc adapts a plain predicate to PermissionChecker.
type PermissionFunc func(ctx context.Context) bool

func (f PermissionFunc) Granted(ctx context.Context) bool { return f(ctx) }

// AsynqRegistry schedules reminders as delayed asynq tasks. The queue
// plays the role of the device notification registry: disposable, rebuilt
// wholesale on every reconciliation.
type AsynqRegistry struct {
	Client    *asynq.Client
	Inspector *asynq.Inspector
	Queue     string
	Logger    *zap.Logger
}

var _ NotificationRegistry = (*AsynqRegistry)(nil)

func NewAsynqRegistry(redisOpt asynq.RedisClientOpt, queue string, logger *zap.Logger) *AsynqRegistry {
	return &AsynqRegistry{
		Client:    asynq.NewClient(redisOpt),
		Inspector: asynq.NewInspector(redisOpt),
		Queue:     queue,
		Logger:    logger,
	}
}

func (r *AsynqRegistry) Schedule(ctx context.Context, payload models.ReminderPayload, fireAt time.Time) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("reminder: marshal payload: %w", err)
	}
	task := asynq.NewTask(TypeSendReminder, b)
	opts := []asynq.Option{
		asynq.ProcessAt(fireAt),
		asynq.TaskID(ownedTaskPrefix + payload.IntakeID),
		asynq.Queue(r.Queue),
	}
	if _, err := r.Client.EnqueueContext(ctx, task, opts...); err != nil {
		return fmt.Errorf("reminder: enqueue: %w", err)
	}
	return nil
}

// CancelOwned deletes every marked task from the scheduled and pending
// sets. Unmarked tasks on the same queue are left alone.
func (r *AsynqRegistry) CancelOwned(ctx context.Context) error {
	scheduled, err := r.Inspector.ListScheduledTasks(r.Queue)
	if err != nil {
		return fmt.Errorf("reminder: list scheduled: %w", err)
	}
	pending, err := r.Inspector.ListPendingTasks(r.Queue)
	if err != nil {
		return fmt.Errorf("reminder: list pending: %w", err)
	}

	for _, info := range append(scheduled, pending...) {
		if !strings.HasPrefix(info.ID, ownedTaskPrefix) {
			continue
		}
		if err := r.Inspector.DeleteTask(r.Queue, info.ID); err != nil {
			r.Logger.Warn("reminder: delete task failed",
				zap.String("taskId", info.ID), zap.Error(err))
		}
	}
	return nil
}

func (r *AsynqRegistry) Close() error {
	return r.Client.Close()
}
