package expr

import (
	"strconv"
	"strings"
)

// Node is an AST node. The concrete types are Number, Variable, BinaryOp,
// UnaryOp and Call; callers switch on them exhaustively.
type Node interface {
	// Pos is the rune offset of the node in the source.
	Pos() int
	String() string
	node()
}

// Op is an arithmetic operator.
type Op byte

const (
	OpAdd Op = '+'
	OpSub Op = '-'
	OpMul Op = '*'
	OpDiv Op = '/'
	OpPow Op = '^'
	OpNeg Op = '-'
)

type Number struct {
	Value  float64
	Offset int
}

type Variable struct {
	Name   string
	Offset int
}

type BinaryOp struct {
	Op          Op
	Left, Right Node
	Offset      int
}

type UnaryOp struct {
	Op      Op
	Operand Node
	Offset  int
}

type Call struct {
	Func   string
	Args   []Node
	Offset int
}

func (*Number) node()   {}
func (*Variable) node() {}
func (*BinaryOp) node() {}
func (*UnaryOp) node()  {}
func (*Call) node()     {}

func (n *Number) Pos() int   { return n.Offset }
func (n *Variable) Pos() int { return n.Offset }
func (n *BinaryOp) Pos() int { return n.Offset }
func (n *UnaryOp) Pos() int  { return n.Offset }
func (n *Call) Pos() int     { return n.Offset }

func (n *Number) String() string {
	return strconv.FormatFloat(n.Value, 'g', -1, 64)
}

func (n *Variable) String() string {
	return n.Name
}

func (n *BinaryOp) String() string {
	return "(" + n.Left.String() + " " + string(n.Op) + " " + n.Right.String() + ")"
}

func (n *UnaryOp) String() string {
	return "(" + string(n.Op) + n.Operand.String() + ")"
}

func (n *Call) String() string {
	args := make([]string, len(n.Args))
	for i, a := range n.Args {
		args[i] = a.String()
	}
	return n.Func + "(" + strings.Join(args, ", ") + ")"
}

// Walk visits n and its descendants depth-first, left to right. Returning
// false from fn skips the children of that node.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	switch n := n.(type) {
	case *BinaryOp:
		Walk(n.Left, fn)
		Walk(n.Right, fn)
	case *UnaryOp:
		Walk(n.Operand, fn)
	case *Call:
		for _, a := range n.Args {
			Walk(a, fn)
		}
	}
}

// Identifiers returns the distinct variable names referenced by n in order
// of first appearance.
func Identifiers(n Node) []string {
	var names []string
	seen := make(map[string]bool)
	Walk(n, func(n Node) bool {
		if v, ok := n.(*Variable); ok && !seen[v.Name] {
			seen[v.Name] = true
			names = append(names, v.Name)
		}
		return true
	})
	return names
}
