package expr

// Validate checks that every identifier in n belongs to vocab and that every
// call names a supported function with the right number of arguments. It
// never evaluates anything, so numeric domain problems are not reported.
// The first problem in source order is returned.
func Validate(n Node, vocab *Vocabulary) error {
	switch n := n.(type) {
	case nil:
		return newError(ErrEmptyExpression, -1, "empty expression")
	case *Number:
		return nil
	case *Variable:
		if !vocab.Contains(n.Name) {
			return named(newError(ErrUnknownIdentifier, n.Offset, "unknown identifier `%s`", n.Name), n.Name)
		}
		return nil
	case *UnaryOp:
		return Validate(n.Operand, vocab)
	case *BinaryOp:
		if err := Validate(n.Left, vocab); err != nil {
			return err
		}
		return Validate(n.Right, vocab)
	case *Call:
		arity, ok := Arity(n.Func)
		if !ok {
			return named(newError(ErrUnknownFunction, n.Offset, "unknown function `%s`", n.Func), n.Func)
		}
		if len(n.Args) != arity {
			return named(newError(ErrArity, n.Offset, "wrong argument count for `%s`: expected %d, got %d", n.Func, arity, len(n.Args)), n.Func)
		}
		for _, a := range n.Args {
			if err := Validate(a, vocab); err != nil {
				return err
			}
		}
		return nil
	}
	return newError(ErrUnexpectedToken, n.Pos(), "unsupported node %T", n)
}

func named(e *Error, name string) *Error {
	e.Name = name
	return e
}
