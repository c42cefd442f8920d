package expr

import (
	"fmt"
	"math"
)

// inlineStack is the evaluation stack size that lives on the Go stack;
// deeper programs allocate per call.
const inlineStack = 32

type opcode uint8

const (
	opConst opcode = iota
	opLoad
	opNeg
	opAdd
	opSub
	opMul
	opDiv
	opPow
	opCall1
	opCall2
)

type instr struct {
	op   opcode
	slot int
	val  float64
	fn1  func(float64) float64
	fn2  func(float64, float64) float64
}

// Expression is a compiled, immutable evaluator for one formula.
type Expression struct {
	source string
	root   Node
	vocab  *Vocabulary
	prog   []instr
	depth  int
	uses   []bool
}

// Compile validates n against vocab and flattens it into a postfix program.
// Subtrees without variables are folded to constants.
func Compile(n Node, vocab *Vocabulary) (*Expression, error) {
	if err := Validate(n, vocab); err != nil {
		return nil, err
	}
	c := &compiler{vocab: vocab, uses: make([]bool, vocab.Len())}
	c.emit(n)
	return &Expression{
		source: n.String(),
		root:   n,
		vocab:  vocab,
		prog:   c.prog,
		depth:  c.max,
		uses:   c.uses,
	}, nil
}

// CompileString parses, validates and compiles src in one step.
func CompileString(src string, vocab *Vocabulary) (*Expression, error) {
	n, err := Parse(src)
	if err != nil {
		return nil, err
	}
	e, err := Compile(n, vocab)
	if err != nil {
		return nil, err
	}
	e.source = src
	return e, nil
}

// Evaluate computes the expression with values looked up by name. Every
// vocabulary name must be bound; a missing binding panics.
func (e *Expression) Evaluate(bindings map[string]float64) float64 {
	var buf [inlineStack]float64
	var vals []float64
	if n := e.vocab.Len(); n <= inlineStack {
		vals = buf[:n]
	} else {
		vals = make([]float64, n)
	}
	for i, name := range e.vocab.names {
		v, ok := bindings[name]
		if !ok {
			panic(fmt.Sprintf("expr: missing binding for %q in %s", name, e.vocab))
		}
		vals[i] = v
	}
	return e.EvaluateSlots(vals)
}

// EvaluateSlots computes the expression with values given in vocabulary
// slot order. It does not allocate for ordinary formulas.
func (e *Expression) EvaluateSlots(vals []float64) float64 {
	if len(vals) < e.vocab.Len() {
		panic(fmt.Sprintf("expr: %d slot values for vocabulary %s", len(vals), e.vocab))
	}

	var buf [inlineStack]float64
	var stack []float64
	if e.depth <= inlineStack {
		stack = buf[:e.depth]
	} else {
		stack = make([]float64, e.depth)
	}

	sp := 0
	for i := range e.prog {
		in := &e.prog[i]
		switch in.op {
		case opConst:
			stack[sp] = in.val
			sp++
		case opLoad:
			stack[sp] = vals[in.slot]
			sp++
		case opNeg:
			stack[sp-1] = -stack[sp-1]
		case opAdd:
			sp--
			stack[sp-1] += stack[sp]
		case opSub:
			sp--
			stack[sp-1] -= stack[sp]
		case opMul:
			sp--
			stack[sp-1] *= stack[sp]
		case opDiv:
			sp--
			stack[sp-1] /= stack[sp]
		case opPow:
			sp--
			stack[sp-1] = math.Pow(stack[sp-1], stack[sp])
		case opCall1:
			stack[sp-1] = in.fn1(stack[sp-1])
		case opCall2:
			sp--
			stack[sp-1] = in.fn2(stack[sp-1], stack[sp])
		}
	}
	return stack[0]
}

// Uses reports whether the formula references name.
func (e *Expression) Uses(name string) bool {
	i, ok := e.vocab.Index(name)
	return ok && e.uses[i]
}

func (e *Expression) Vocabulary() *Vocabulary {
	return e.vocab
}

// AST returns the tree the expression was compiled from.
func (e *Expression) AST() Node {
	return e.root
}

// String returns the source text the expression was compiled from.
func (e *Expression) String() string {
	return e.source
}

type compiler struct {
	vocab *Vocabulary
	prog  []instr
	uses  []bool
	sp    int
	max   int
}

func (c *compiler) push(in instr, delta int) {
	c.prog = append(c.prog, in)
	c.sp += delta
	if c.sp > c.max {
		c.max = c.sp
	}
}

func (c *compiler) emit(n Node) {
	if v, ok := fold(n); ok {
		c.push(instr{op: opConst, val: v}, 1)
		return
	}

	switch n := n.(type) {
	case *Variable:
		slot, _ := c.vocab.Index(n.Name)
		c.uses[slot] = true
		c.push(instr{op: opLoad, slot: slot}, 1)
	case *UnaryOp:
		c.emit(n.Operand)
		c.push(instr{op: opNeg}, 0)
	case *BinaryOp:
		c.emit(n.Left)
		c.emit(n.Right)
		c.push(instr{op: binaryOpcode(n.Op)}, -1)
	case *Call:
		f := functions[n.Func]
		for _, a := range n.Args {
			c.emit(a)
		}
		if f.arity == 1 {
			c.push(instr{op: opCall1, fn1: f.fn1}, 0)
		} else {
			c.push(instr{op: opCall2, fn2: f.fn2}, -1)
		}
	}
}

func binaryOpcode(op Op) opcode {
	switch op {
	case OpAdd:
		return opAdd
	case OpSub:
		return opSub
	case OpMul:
		return opMul
	case OpDiv:
		return opDiv
	}
	return opPow
}

// fold evaluates n if it references no variables.
func fold(n Node) (float64, bool) {
	switch n := n.(type) {
	case *Number:
		return n.Value, true
	case *UnaryOp:
		v, ok := fold(n.Operand)
		return -v, ok
	case *BinaryOp:
		l, ok := fold(n.Left)
		if !ok {
			return 0, false
		}
		r, ok := fold(n.Right)
		if !ok {
			return 0, false
		}
		switch n.Op {
		case OpAdd:
			return l + r, true
		case OpSub:
			return l - r, true
		case OpMul:
			return l * r, true
		case OpDiv:
			return l / r, true
		}
		return math.Pow(l, r), true
	case *Call:
		f := functions[n.Func]
		args := make([]float64, len(n.Args))
		for i, a := range n.Args {
			v, ok := fold(a)
			if !ok {
				return 0, false
			}
			args[i] = v
		}
		if f.arity == 1 {
			return f.fn1(args[0]), true
		}
		return f.fn2(args[0], args[1]), true
	}
	return 0, false
}
