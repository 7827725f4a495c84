package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"

	"github.com/babelboard/babelboard/internal/authz"
)

type stubGraphSource struct {
	graph *authz.Graph
	err   error
	calls int
}

func (s *stubGraphSource) LoadGraph(ctx context.Context) (*authz.Graph, error) {
	s.calls++
	return s.graph, s.err
}

type stubGraphSink struct {
	swapped []*authz.Graph
}

func (s *stubGraphSink) SwapGraph(g *authz.Graph) {
	s.swapped = append(s.swapped, g)
}

func reloadTask(t *testing.T) *asynq.Task {
	t.Helper()
	task, err := NewRolesReloadTask(time.Now().UTC())
	if err != nil {
		t.Fatalf("build task: %v", err)
	}
	return task
}

func TestRolesReloadSwapsGraph(t *testing.T) {
	graph, err := authz.NewGraph([]authz.Role{
		{ID: 1, Name: authz.GuestRoleName, Active: true},
		{ID: 2, Name: "user", Active: true},
	})
	if err != nil {
		t.Fatalf("build graph: %v", err)
	}

	source := &stubGraphSource{graph: graph}
	sink := &stubGraphSink{}
	job := NewRolesReloadJob(source, sink, nil, nil)

	if err := job.Handle(context.Background(), reloadTask(t)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if source.calls != 1 {
		t.Fatalf("expected one load, got %d", source.calls)
	}
	if len(sink.swapped) != 1 || sink.swapped[0] != graph {
		t.Fatalf("expected graph to be swapped in")
	}
}

func TestRolesReloadKeepsPreviousGraphOnError(t *testing.T) {
	source := &stubGraphSource{err: errors.New("roles table unreadable")}
	sink := &stubGraphSink{}
	job := NewRolesReloadJob(source, sink, nil, nil)

	if err := job.Handle(context.Background(), reloadTask(t)); err == nil {
		t.Fatal("expected error")
	}
	if len(sink.swapped) != 0 {
		t.Fatalf("graph must not be swapped on failure, got %d swaps", len(sink.swapped))
	}
}

func TestRolesReloadRejectsMalformedPayload(t *testing.T) {
	job := NewRolesReloadJob(&stubGraphSource{}, &stubGraphSink{}, nil, nil)
	task := asynq.NewTask(TaskRolesReload, []byte("{not json"))

	err := job.Handle(context.Background(), task)
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry, got %v", err)
	}
}

func TestRolesReloadPayloadRoundTrip(t *testing.T) {
	at := time.Date(2026, 3, 1, 4, 0, 0, 0, time.UTC)
	task, err := NewRolesReloadTask(at)
	if err != nil {
		t.Fatalf("build task: %v", err)
	}
	var payload RolesReloadPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if !payload.ScheduledFor.Equal(at) {
		t.Fatalf("scheduled_for mismatch: %s", payload.ScheduledFor)
	}
}
