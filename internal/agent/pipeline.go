// Package agent implements the ArthAstra loan-advisory agent pipelines: a
// generic step executor and orchestrator plus the concrete pipelines built
// on them (rejection-recovery squad, financial council, eligibility
// insights, loan recommendations, and the conversational advisor).
package agent

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/arthastra/arthastra/pkg/models"
)

// ── Events ──

// Event types published while a pipeline runs.
const (
	EventPipelineStarted   = "pipeline_started"
	EventPipelineCompleted = "pipeline_completed"
	EventStageStarted      = "stage_started"
	EventStageCompleted    = "stage_completed"
	EventStageDegraded     = "stage_degraded"
)

// Event is a progress notification emitted during a pipeline run.
type Event struct {
	Type      string    `json:"type"`
	Pipeline  string    `json:"pipeline"`
	Step      string    `json:"step,omitempty"`
	Status    string    `json:"status,omitempty"` // final pipeline status
	Reason    string    `json:"reason,omitempty"` // degradation reason
	Timestamp time.Time `json:"timestamp"`
}

// EventSink receives pipeline events. Publish must not block; the websocket
// hub drops events for slow clients rather than stalling the pipeline.
type EventSink interface {
	Publish(Event)
}

// NopSink discards all events.
type NopSink struct{}

// Publish implements EventSink.
func (NopSink) Publish(Event) {}

// ── Topology ──

// Stage is one rung of a pipeline: a single step, or several steps run
// concurrently whose outputs fan in to the next rung.
type Stage struct {
	Steps []*Step
}

// Seq wraps a single step as a sequential stage.
func Seq(step *Step) Stage { return Stage{Steps: []*Step{step}} }

// Par groups steps into a concurrent fan-in stage.
func Par(steps ...*Step) Stage { return Stage{Steps: steps} }

// ── Pipeline ──

// Pipeline runs an ordered list of stages, threading each stage's output
// into the context of every later stage. A run always produces a complete
// result: failed stages carry their fallback payloads instead of aborting
// the pipeline.
type Pipeline struct {
	name       string
	stages     []Stage
	stageDelay time.Duration
	sink       EventSink
}

// PipelineOption configures a pipeline.
type PipelineOption func(*Pipeline)

// WithStageDelay sets the pause between consecutive stages. The pause keeps
// sequential model calls under free-tier rate limits.
func WithStageDelay(d time.Duration) PipelineOption {
	return func(p *Pipeline) { p.stageDelay = d }
}

// WithEventSink sets the sink for progress events.
func WithEventSink(sink EventSink) PipelineOption {
	return func(p *Pipeline) { p.sink = sink }
}

// NewPipeline creates a pipeline from ordered stages.
func NewPipeline(name string, stages []Stage, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		name:       name,
		stages:     stages,
		stageDelay: time.Second,
		sink:       NopSink{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the pipeline identifier.
func (p *Pipeline) Name() string { return p.name }

// Run executes all stages in order and returns the aggregate result. Initial
// seeds the shared context; each completed stage's data is added under the
// stage's name. Run never fails: when the deadline expires mid-run the
// remaining stages are synthesized from their fallbacks and the whole run
// reports fallback status.
func (p *Pipeline) Run(ctx context.Context, initial map[string]any) *models.PipelineResult {
	start := time.Now()

	carry := make(map[string]any, len(initial)+len(p.stages))
	for k, v := range initial {
		carry[k] = v
	}

	result := &models.PipelineResult{
		Pipeline: p.name,
		Stages:   make(map[string]models.StageResult),
	}

	p.sink.Publish(Event{Type: EventPipelineStarted, Pipeline: p.name, Timestamp: time.Now()})

	expired := false
	for i, stage := range p.stages {
		if i > 0 && p.stageDelay > 0 && ctx.Err() == nil {
			select {
			case <-ctx.Done():
			case <-time.After(p.stageDelay):
			}
		}

		if ctx.Err() != nil {
			expired = true
			for _, remaining := range p.stages[i:] {
				for _, step := range remaining.Steps {
					p.record(result, carry, step.FallbackResult("pipeline deadline exceeded"))
				}
			}
			break
		}

		p.runStage(ctx, stage, carry, result)
	}

	result.Status = pipelineStatus(result)
	if expired {
		// A deadline short-circuit is a fallback run even when earlier
		// stages completed before the clock ran out.
		result.Status = models.StatusFallback
	}
	result.Duration = time.Since(start)

	p.sink.Publish(Event{
		Type:      EventPipelineCompleted,
		Pipeline:  p.name,
		Status:    string(result.Status),
		Timestamp: time.Now(),
	})

	return result
}

// runStage executes one stage. Concurrent steps read the carry but never
// write it; their outputs land after the whole group finishes, in
// declaration order, so results are deterministic regardless of which
// goroutine finishes first.
func (p *Pipeline) runStage(ctx context.Context, stage Stage, carry map[string]any, result *models.PipelineResult) {
	if len(stage.Steps) == 1 {
		step := stage.Steps[0]
		p.sink.Publish(Event{Type: EventStageStarted, Pipeline: p.name, Step: step.Name(), Timestamp: time.Now()})
		p.record(result, carry, step.Run(ctx, carry))
		return
	}

	results := make([]models.StageResult, len(stage.Steps))
	g, gctx := errgroup.WithContext(ctx)
	for i, step := range stage.Steps {
		p.sink.Publish(Event{Type: EventStageStarted, Pipeline: p.name, Step: step.Name(), Timestamp: time.Now()})
		g.Go(func() error {
			results[i] = step.Run(gctx, carry)
			return nil
		})
	}
	// Steps never return errors; Wait only synchronizes the group.
	_ = g.Wait()

	for i := range stage.Steps {
		p.record(result, carry, results[i])
	}
}

// record stores a stage result, feeds its data into the shared carry, and
// publishes the completion event.
func (p *Pipeline) record(result *models.PipelineResult, carry map[string]any, sr models.StageResult) {
	result.Order = append(result.Order, sr.Step)
	result.Stages[sr.Step] = sr
	carry[sr.Step] = sr.Data

	evt := EventStageCompleted
	if sr.Degraded {
		evt = EventStageDegraded
	}
	p.sink.Publish(Event{
		Type:      evt,
		Pipeline:  p.name,
		Step:      sr.Step,
		Reason:    sr.Reason,
		Timestamp: time.Now(),
	})
}

// pipelineStatus derives the aggregate status from per-stage degradation.
func pipelineStatus(result *models.PipelineResult) models.PipelineStatus {
	degraded := result.DegradedCount()
	switch {
	case degraded == 0:
		return models.StatusOK
	case degraded == len(result.Stages):
		return models.StatusFallback
	default:
		return models.StatusPartial
	}
}
