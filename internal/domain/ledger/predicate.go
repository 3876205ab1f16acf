package ledger

import (
	"fmt"

	"github.com/google/cel-go/cel"

	"helmetledger/internal/core/apperror"
)

// Predicate selects ledger rows for in-process sums.
type Predicate func(t *Transaction) (bool, error)

// FilterPredicate adapts a Filter to a Predicate.
func FilterPredicate(f Filter) Predicate {
	return func(t *Transaction) (bool, error) { return f.Matches(t), nil }
}

var predicateEnv = mustPredicateEnv()

func mustPredicateEnv() *cel.Env {
	env, err := cel.NewEnv(
		cel.Variable("amount", cel.DoubleType),
		cel.Variable("direction", cel.StringType),
		cel.Variable("detail", cel.StringType),
		cel.Variable("wallet", cel.StringType),
		cel.Variable("payment_method", cel.StringType),
		cel.Variable("affects_profit", cel.BoolType),
		cel.Variable("affects_cash", cel.BoolType),
		cel.Variable("reference", cel.StringType),
		cel.Variable("date", cel.TimestampType),
	)
	if err != nil {
		panic(fmt.Sprintf("ledger: build CEL environment: %v", err))
	}
	return env
}

// CompilePredicate compiles a CEL boolean expression over a row, for example
//
//	affects_profit && detail != "COST_OF_GOODS_SOLD" && amount < 0.0
//
// The amount is exposed as a double for selection only; sums stay decimal.
func CompilePredicate(expr string) (Predicate, error) {
	ast, issues := predicateEnv.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, apperror.NewValidation("invalid filter expression").
			WithDetail("expression", expr).
			WithCause(issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, apperror.NewValidation("filter expression must evaluate to a boolean").
			WithDetail("expression", expr)
	}

	prg, err := predicateEnv.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("build CEL program: %w", err)
	}

	return func(t *Transaction) (bool, error) {
		out, _, err := prg.Eval(activation(t))
		if err != nil {
			return false, apperror.NewValidation("filter expression failed").
				WithDetail("expression", expr).
				WithCause(err)
		}
		b, ok := out.Value().(bool)
		if !ok {
			return false, fmt.Errorf("filter expression returned %T", out.Value())
		}
		return b, nil
	}, nil
}

func activation(t *Transaction) map[string]any {
	wallet := ""
	if t.WalletDestination != nil {
		wallet = string(*t.WalletDestination)
	}
	amount, _ := t.Amount.Float64()
	return map[string]any{
		"amount":         amount,
		"direction":      string(t.Direction),
		"detail":         string(t.Detail),
		"wallet":         wallet,
		"payment_method": string(t.PaymentMethod),
		"affects_profit": t.AffectsProfit,
		"affects_cash":   t.AffectsCash,
		"reference":      t.Reference,
		"date":           t.Date.UTC(),
	}
}
