// Package expr parses, validates and compiles right-hand-side formulas such
// as "k*X*(1-X)" into fast numeric evaluators.
//
// The pipeline is split into three stages:
//
//   - [Parse] / [ParseList]: text to AST ([Node]), no evaluation
//   - [Validate]: structural check of identifiers and function arity
//     against a frozen [Vocabulary]
//   - [Compile]: flattens a validated AST into an [Expression], a
//     postfix program evaluated on a fixed-size stack
//
// # Numeric semantics
//
// Evaluation follows IEEE-754: division by zero yields ±Inf or NaN and
// domain errors (sqrt or log of a negative number) yield NaN. Evaluation
// never returns an error. Calling [Expression.Evaluate] without a binding
// for a vocabulary name is a caller bug and panics.
//
// # Example
//
//	vocab := expr.NewVocabulary("X", "k")
//	e, err := expr.CompileString("k*X*(1-X)", vocab)
//	if err != nil {
//	    return err
//	}
//	dx := e.Evaluate(map[string]float64{"X": 0.25, "k": 0.5})
//
// # Thread Safety
//
// A compiled [Expression] is immutable and may be evaluated from any number
// of goroutines at once.
package expr
