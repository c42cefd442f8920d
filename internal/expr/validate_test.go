package expr_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/phasekit/internal/expr"
)

var _ = Describe("Validate", func() {
	mustParse := func(src string) expr.Node {
		n, err := expr.Parse(src)
		ExpectWithOffset(1, err).NotTo(HaveOccurred())
		return n
	}

	It("accepts the logistic formula against {X, k}", func() {
		n := mustParse("k*X*(1-X)")
		Expect(expr.Validate(n, expr.NewVocabulary("X", "k"))).To(Succeed())
	})

	It("names the unknown identifier", func() {
		n := mustParse("k*X*(1-X)")
		err := expr.Validate(n, expr.NewVocabulary("X"))
		Expect(err).To(MatchError(expr.ErrUnknownIdentifier))
		Expect(err.Error()).To(ContainSubstring("unknown identifier `k`"))
		Expect(err.(*expr.Error).Offset).To(Equal(0))
		Expect(err.(*expr.Error).Name).To(Equal("k"))
	})

	It("rejects unsupported functions", func() {
		err := expr.Validate(mustParse("X*gamma(X)"), expr.NewVocabulary("X"))
		Expect(err).To(MatchError(expr.ErrUnknownFunction))
		Expect(err.Error()).To(ContainSubstring("unknown function `gamma`"))
		Expect(err.(*expr.Error).Name).To(Equal("gamma"))
	})

	It("treats an identifier followed by a group as a call", func() {
		err := expr.Validate(mustParse("k(1-X)"), expr.NewVocabulary("X", "k"))
		Expect(err).To(MatchError(expr.ErrUnknownFunction))
	})

	DescribeTable("arity",
		func(src string, ok bool) {
			err := expr.Validate(mustParse(src), expr.NewVocabulary("X"))
			if ok {
				Expect(err).NotTo(HaveOccurred())
				return
			}
			Expect(err).To(MatchError(expr.ErrArity))
			Expect(err.Error()).To(ContainSubstring("wrong argument count"))
		},
		Entry("pow with two", "pow(X, 2)", true),
		Entry("pow with one", "pow(X)", false),
		Entry("sin with two", "sin(X, X)", false),
		Entry("sin with none", "sin()", false),
		Entry("max with two", "max(X, 0)", true),
	)

	It("does not evaluate, so domain problems pass", func() {
		Expect(expr.Validate(mustParse("log(X) + sqrt(-1) + 1/0"), expr.NewVocabulary("X"))).To(Succeed())
	})

	It("reports the first problem in source order", func() {
		err := expr.Validate(mustParse("a + b"), expr.NewVocabulary("X"))
		Expect(err.Error()).To(ContainSubstring("`a`"))
	})
})

var _ = Describe("Vocabulary", func() {
	It("keeps first-seen order and drops duplicates", func() {
		v := expr.NewVocabulary("X", "k", "X", "X_tau")
		Expect(v.Names()).To(Equal([]string{"X", "k", "X_tau"}))
		Expect(v.Len()).To(Equal(3))
		i, ok := v.Index("X_tau")
		Expect(ok).To(BeTrue())
		Expect(i).To(Equal(2))
		Expect(v.String()).To(Equal("{X, k, X_tau}"))
	})

	It("hands out copies of its names", func() {
		v := expr.NewVocabulary("X", "Y")
		names := v.Names()
		names[0] = "Z"
		Expect(v.Contains("X")).To(BeTrue())
		Expect(v.Contains("Z")).To(BeFalse())
	})
})
