package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/arthastra/arthastra/internal/agent/prompts"
	"github.com/arthastra/arthastra/internal/llm"
	"github.com/arthastra/arthastra/pkg/models"
)

// Completer is the slice of the LLM gateway a step needs. *llm.Gateway
// satisfies it; tests substitute a stub.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// StepSpec declares one pipeline stage: who the agent is, what context it
// sees, and what shape its output must take.
type StepSpec struct {
	// Name is the stage's identifier in pipeline results ("investigation",
	// "optimist", ...).
	Name string

	// Role is the agent's role instruction (one of the prompts constants).
	Role string

	// OutputFields lists the JSON keys the model must return. Empty means
	// the step produces free text instead of a JSON object.
	OutputFields []string

	// RawKey is the key free-text output is stored under ("argument" for
	// the council debaters). Ignored when OutputFields is set.
	RawKey string

	// Fallback is the hand-authored payload used when the model fails or
	// returns nothing usable. Never mutated; every use gets a fresh copy.
	Fallback map[string]any

	// Recover, when set, builds the degraded payload from the raw completion
	// instead of the static Fallback. The council judge uses it to keep the
	// model's prose as the verdict when it ignores the JSON instruction.
	Recover func(raw string) map[string]any

	// BuildContext selects what this step sees from the accumulated pipeline
	// state. Nil means the step sees the whole carry.
	BuildContext func(carry map[string]any) map[string]any
}

// Step executes a single agent turn through the gateway.
type Step struct {
	spec StepSpec
	gw   Completer
}

// NewStep creates a step bound to a gateway.
func NewStep(gw Completer, spec StepSpec) *Step {
	return &Step{spec: spec, gw: gw}
}

// Name returns the stage identifier.
func (s *Step) Name() string { return s.spec.Name }

// Run renders the prompt, calls the gateway, and extracts the structured
// output. It never returns an error: any failure degrades to the declared
// fallback so downstream stages always have input to work with.
func (s *Step) Run(ctx context.Context, carry map[string]any) models.StageResult {
	start := time.Now()

	fields := carry
	if s.spec.BuildContext != nil {
		fields = s.spec.BuildContext(carry)
	}

	text, err := s.gw.Complete(ctx, s.renderPrompt(fields))
	if err != nil {
		return s.degraded(err.Error(), start)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return s.degraded("empty completion", start)
	}

	if len(s.spec.OutputFields) == 0 {
		key := s.spec.RawKey
		if key == "" {
			key = "text"
		}
		return models.StageResult{
			Step:     s.spec.Name,
			Data:     map[string]any{key: text},
			Duration: time.Since(start),
		}
	}

	parsed, ok := llm.ParseJSONObject(text)
	if !ok {
		if s.spec.Recover != nil {
			return models.StageResult{
				Step:     s.spec.Name,
				Data:     s.spec.Recover(text),
				Degraded: true,
				Reason:   "no JSON object in completion",
				Duration: time.Since(start),
			}
		}
		return s.degraded("no JSON object in completion", start)
	}

	return models.StageResult{
		Step:     s.spec.Name,
		Data:     parsed,
		Duration: time.Since(start),
	}
}

// FallbackResult synthesizes a degraded result without calling the model.
// The pipeline uses it for stages skipped after a deadline.
func (s *Step) FallbackResult(reason string) models.StageResult {
	return s.degraded(reason, time.Now())
}

func (s *Step) degraded(reason string, start time.Time) models.StageResult {
	return models.StageResult{
		Step:     s.spec.Name,
		Data:     llm.ExtractJSON("", s.spec.Fallback),
		Degraded: true,
		Reason:   reason,
		Duration: time.Since(start),
	}
}

// renderPrompt assembles the role instructions, the Indian lending context,
// the serialized stage context, and the output-format instruction.
func (s *Step) renderPrompt(fields map[string]any) string {
	var sb strings.Builder
	sb.WriteString(s.spec.Role)
	sb.WriteString("\n")
	sb.WriteString(prompts.IndianLendingPromptSuffix())

	if len(fields) > 0 {
		sb.WriteString("\n\n## Context\n")
		sb.WriteString(marshalContext(fields))
	}

	if len(s.spec.OutputFields) > 0 {
		sb.WriteString("\n\nReturn ONLY a valid JSON object with exactly these keys: ")
		for i, f := range s.spec.OutputFields {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%q", f)
		}
		sb.WriteString(". No prose outside the JSON.")
	}

	return sb.String()
}

// marshalContext serializes context fields deterministically (encoding/json
// sorts map keys) so identical inputs always produce identical prompts.
func marshalContext(fields map[string]any) string {
	data, err := json.MarshalIndent(fields, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", fields)
	}
	return string(data)
}
