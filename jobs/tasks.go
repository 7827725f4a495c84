package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskRolesReload rebuilds the role graph from storage and swaps it into
	// the running engine.
	TaskRolesReload = "roles:reload"
	// TaskSessionsPurge removes stale login session records.
	TaskSessionsPurge = "sessions:purge"
)

// RolesReloadPayload carries scheduling metadata for a role graph reload.
type RolesReloadPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewRolesReloadTask constructs an Asynq task for reloading the role graph.
func NewRolesReloadTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(RolesReloadPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRolesReload, body, asynq.Queue(QueueDefault)), nil
}

// SessionsPurgePayload configures how far back login records are kept.
type SessionsPurgePayload struct {
	RetentionDays int `json:"retention_days"`
}

// NewSessionsPurgeTask constructs an Asynq task for purging login records.
func NewSessionsPurgeTask(retentionDays int) (*asynq.Task, error) {
	body, err := json.Marshal(SessionsPurgePayload{RetentionDays: retentionDays})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSessionsPurge, body, asynq.Queue(QueueDefault)), nil
}
