package expr_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/phasekit/internal/expr"
)

func parseErr(src string) *expr.Error {
	_, err := expr.Parse(src)
	ExpectWithOffset(1, err).To(HaveOccurred())
	var e *expr.Error
	ExpectWithOffset(1, errors.As(err, &e)).To(BeTrue())
	return e
}

var _ = Describe("Lexer", func() {
	It("classifies every token kind", func() {
		toks, err := expr.Tokenize("k*X_tau^2 - sin(1.5e-1, .5) / 3")
		Expect(err).NotTo(HaveOccurred())

		var types []expr.TokenType
		for _, t := range toks {
			types = append(types, t.Type)
		}
		Expect(types).To(Equal([]expr.TokenType{
			expr.TokenIdent, expr.TokenStar, expr.TokenIdent, expr.TokenCaret, expr.TokenNumber,
			expr.TokenMinus, expr.TokenIdent, expr.TokenLParen, expr.TokenNumber, expr.TokenComma,
			expr.TokenNumber, expr.TokenRParen, expr.TokenSlash, expr.TokenNumber, expr.TokenEOF,
		}))
		Expect(toks[8].Value).To(Equal(0.15))
		Expect(toks[10].Value).To(Equal(0.5))
	})

	It("records rune offsets", func() {
		toks, err := expr.Tokenize("  X +  k")
		Expect(err).NotTo(HaveOccurred())
		Expect(toks[0].Offset).To(Equal(2))
		Expect(toks[1].Offset).To(Equal(4))
		Expect(toks[2].Offset).To(Equal(7))
	})

	It("rejects characters outside the grammar", func() {
		_, err := expr.Tokenize("X # 2")
		Expect(err).To(MatchError(expr.ErrUnexpectedToken))
		Expect(err.(*expr.Error).Offset).To(Equal(2))
	})

	It("leaves a dangling exponent marker to the identifier scanner", func() {
		toks, err := expr.Tokenize("2e")
		Expect(err).NotTo(HaveOccurred())
		Expect(toks[0].Type).To(Equal(expr.TokenNumber))
		Expect(toks[1].Type).To(Equal(expr.TokenIdent))
	})
})

var _ = Describe("Parse", func() {
	DescribeTable("precedence and associativity",
		func(src, canonical string) {
			n, err := expr.Parse(src)
			Expect(err).NotTo(HaveOccurred())
			Expect(n.String()).To(Equal(canonical))
		},
		Entry("product before sum", "1 + 2 * X", "(1 + (2 * X))"),
		Entry("left-assoc minus", "X - Y - 1", "((X - Y) - 1)"),
		Entry("left-assoc divide", "X / Y / 2", "((X / Y) / 2)"),
		Entry("right-assoc power", "2^3^X", "(2 ^ (3 ^ X))"),
		Entry("power binds tighter than unary minus", "-X^2", "(-(X ^ 2))"),
		Entry("negative exponent", "X^-1", "(X ^ (-1))"),
		Entry("grouping", "k*X*(1-X)", "((k * X) * (1 - X))"),
		Entry("calls", "pow(X, 2) + sin(Y)", "(pow(X, 2) + sin(Y))"),
		Entry("whitespace is insignificant", "  k *X\t*( 1-X ) ", "((k * X) * (1 - X))"),
	)

	It("parses a component list", func() {
		nodes, err := expr.ParseList("-Y, -X")
		Expect(err).NotTo(HaveOccurred())
		Expect(nodes).To(HaveLen(2))
		Expect(nodes[0].String()).To(Equal("(-Y)"))
		Expect(nodes[1].String()).To(Equal("(-X)"))
	})

	It("builds the expected node types", func() {
		n, err := expr.Parse("sqrt(X) * -k")
		Expect(err).NotTo(HaveOccurred())
		bin, ok := n.(*expr.BinaryOp)
		Expect(ok).To(BeTrue())
		Expect(bin.Op).To(Equal(expr.OpMul))
		Expect(bin.Left).To(BeAssignableToTypeOf(&expr.Call{}))
		Expect(bin.Right).To(BeAssignableToTypeOf(&expr.UnaryOp{}))
	})

	DescribeTable("errors carry kind and offset",
		func(src string, kind error, offset int) {
			e := parseErr(src)
			Expect(errors.Is(e, kind)).To(BeTrue(), e.Error())
			Expect(e.Offset).To(Equal(offset))
		},
		Entry("empty", "", expr.ErrEmptyExpression, 0),
		Entry("blank", "   ", expr.ErrEmptyExpression, 3),
		Entry("implicit multiplication", "2X", expr.ErrTrailingInput, 1),
		Entry("adjacent identifiers", "k X", expr.ErrTrailingInput, 2),
		Entry("unclosed group", "k*(1-X", expr.ErrUnbalancedParens, 2),
		Entry("unclosed call", "sin(X", expr.ErrUnbalancedParens, 3),
		Entry("extra close", "(X))", expr.ErrUnbalancedParens, 3),
		Entry("dangling operator", "X +", expr.ErrUnexpectedToken, 3),
		Entry("double operator", "X * * 2", expr.ErrUnexpectedToken, 4),
		Entry("empty parentheses", "()", expr.ErrUnexpectedToken, 1),
		Entry("trailing comma", "X,", expr.ErrTrailingInput, 1),
	)

	It("rejects a trailing comma in a component list", func() {
		_, err := expr.ParseList("-Y,")
		Expect(err).To(MatchError(expr.ErrEmptyExpression))
	})

	It("bounds nesting depth", func() {
		src := ""
		for i := 0; i < 300; i++ {
			src += "("
		}
		_, err := expr.Parse(src + "X")
		Expect(err).To(MatchError(expr.ErrTooDeep))
	})

	It("lists identifiers in order of appearance", func() {
		n, err := expr.Parse("k*X*(1-X) + r")
		Expect(err).NotTo(HaveOccurred())
		Expect(expr.Identifiers(n)).To(Equal([]string{"k", "X", "r"}))
	})
})
