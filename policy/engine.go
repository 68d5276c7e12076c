// Package policy evaluates the preflight policy applied to a research query
// before any remote call is made.
package policy

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/open-policy-agent/opa/rego"
)

// Decisions returned by the policy.
const (
	DecisionAllow = "allow"
	DecisionBlock = "block"
)

// ErrBlocked is returned by Check when the policy blocks the input.
var ErrBlocked = errors.New("blocked by research policy")

// Input is the document the policy is evaluated against.
type Input struct {
	Query             string `json:"query"`
	Model             string `json:"model"`
	DeepResearchModel string `json:"deep_research_model"`
}

// Decision is the outcome of an evaluation.
type Decision struct {
	Decision string
	Reason   string
}

// Allowed reports whether the decision lets the run proceed.
func (d Decision) Allowed() bool {
	return d.Decision != DecisionBlock
}

// Engine is the OPA policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a new policy engine with the given policy content.
// The module must declare package research_policy with a decision rule
// and may declare a reason rule.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("decision := data.research_policy.decision; reason := object.get(data.research_policy, \"reason\", \"\")"),
		rego.Module("research_policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// NewEngineFromFile loads the policy module at path, or the default policy when path is empty.
func NewEngineFromFile(ctx context.Context, path string) (*Engine, error) {
	if path == "" {
		return NewEngine(ctx, DefaultPolicy)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy %s: %w", path, err)
	}
	return NewEngine(ctx, string(content))
}

// Evaluate runs the policy for input.
func (e *Engine) Evaluate(ctx context.Context, input Input) (Decision, error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return Decision{}, fmt.Errorf("failed to evaluate policy: %w", err)
	}

	// An undefined decision means the module has no default; treat it as allow.
	if len(results) == 0 {
		return Decision{Decision: DecisionAllow, Reason: "default"}, nil
	}

	d := Decision{Decision: DecisionAllow}
	if s, ok := results[0].Bindings["decision"].(string); ok {
		d.Decision = s
	}
	if s, ok := results[0].Bindings["reason"].(string); ok {
		d.Reason = s
	}
	return d, nil
}

// Check evaluates input and returns an error wrapping ErrBlocked when blocked.
func (e *Engine) Check(ctx context.Context, input Input) error {
	d, err := e.Evaluate(ctx, input)
	if err != nil {
		return err
	}
	if !d.Allowed() {
		if d.Reason == "" {
			return ErrBlocked
		}
		return fmt.Errorf("%w: %s", ErrBlocked, d.Reason)
	}
	return nil
}

// DefaultPolicy is the default policy content.
const DefaultPolicy = `
package research_policy

default decision = "allow"
default reason = ""

decision = "block" {
	trim_space(input.query) == ""
}

reason = "query is empty" {
	trim_space(input.query) == ""
}
`
