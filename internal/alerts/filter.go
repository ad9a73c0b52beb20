package alerts

import (
	"fmt"

	"github.com/google/cel-go/cel"
)

// Filter decides which alerts are delivered using a CEL expression over
// tier, stage, urgency, remaining_seconds and is_overdue.
type Filter struct {
	expr    string
	program cel.Program
}

// NewFilter compiles expr. An empty expression matches every alert.
func NewFilter(expr string) (*Filter, error) {
	if expr == "" {
		return &Filter{}, nil
	}

	env, err := cel.NewEnv(
		cel.Variable("tier", cel.StringType),
		cel.Variable("stage", cel.StringType),
		cel.Variable("urgency", cel.StringType),
		cel.Variable("remaining_seconds", cel.IntType),
		cel.Variable("is_overdue", cel.BoolType),
	)
	if err != nil {
		return nil, fmt.Errorf("create cel env: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile alert filter: %w", issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("alert filter must return bool, got %s", ast.OutputType())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("build alert filter program: %w", err)
	}

	return &Filter{expr: expr, program: program}, nil
}

// Expression returns the source expression.
func (f *Filter) Expression() string {
	return f.expr
}

// Match evaluates the filter against an alert.
func (f *Filter) Match(a Alert) (bool, error) {
	if f.program == nil {
		return true, nil
	}

	out, _, err := f.program.Eval(map[string]any{
		"tier":              string(a.Tier),
		"stage":             string(a.Stage),
		"urgency":           string(a.Countdown.Urgency),
		"remaining_seconds": a.Countdown.RemainingSeconds,
		"is_overdue":        a.Countdown.IsOverdue,
	})
	if err != nil {
		return false, fmt.Errorf("evaluate alert filter: %w", err)
	}

	matched, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("alert filter returned %T", out.Value())
	}
	return matched, nil
}
