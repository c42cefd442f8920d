package expr

import (
	"math"
	"sort"
)

type function struct {
	arity int
	fn1   func(float64) float64
	fn2   func(float64, float64) float64
}

// Supported functions. log and ln are both the natural logarithm.
var functions = map[string]function{
	"sin":   {arity: 1, fn1: math.Sin},
	"cos":   {arity: 1, fn1: math.Cos},
	"tan":   {arity: 1, fn1: math.Tan},
	"asin":  {arity: 1, fn1: math.Asin},
	"acos":  {arity: 1, fn1: math.Acos},
	"atan":  {arity: 1, fn1: math.Atan},
	"sinh":  {arity: 1, fn1: math.Sinh},
	"cosh":  {arity: 1, fn1: math.Cosh},
	"tanh":  {arity: 1, fn1: math.Tanh},
	"exp":   {arity: 1, fn1: math.Exp},
	"log":   {arity: 1, fn1: math.Log},
	"ln":    {arity: 1, fn1: math.Log},
	"sqrt":  {arity: 1, fn1: math.Sqrt},
	"abs":   {arity: 1, fn1: math.Abs},
	"floor": {arity: 1, fn1: math.Floor},
	"ceil":  {arity: 1, fn1: math.Ceil},
	"pow":   {arity: 2, fn2: math.Pow},
	"atan2": {arity: 2, fn2: math.Atan2},
	"min":   {arity: 2, fn2: math.Min},
	"max":   {arity: 2, fn2: math.Max},
}

// Arity reports the argument count of a supported function.
func Arity(name string) (int, bool) {
	f, ok := functions[name]
	return f.arity, ok
}

// Functions lists the supported function names in sorted order.
func Functions() []string {
	names := make([]string, 0, len(functions))
	for name := range functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
