package expr_test

import (
	"math"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/phasekit/internal/expr"
)

var _ = Describe("Expression", func() {
	vocab := expr.NewVocabulary("X", "Y", "k")

	compile := func(src string) *expr.Expression {
		e, err := expr.CompileString(src, vocab)
		ExpectWithOffset(1, err).NotTo(HaveOccurred())
		return e
	}

	DescribeTable("evaluates with standard semantics",
		func(src string, x, y, k, want float64) {
			got := compile(src).Evaluate(map[string]float64{"X": x, "Y": y, "k": k})
			Expect(got).To(BeNumerically("~", want, 1e-12))
		},
		Entry("logistic", "k*X*(1-X)", 0.25, 0.0, 0.5, 0.09375),
		Entry("field component", "-Y", 0.0, 2.0, 0.0, -2.0),
		Entry("power is right-assoc", "2^3^2", 0.0, 0.0, 0.0, 512.0),
		Entry("unary minus below power", "-X^2", 3.0, 0.0, 0.0, -9.0),
		Entry("pow", "pow(X, Y)", 2.0, 10.0, 0.0, 1024.0),
		Entry("trig", "sin(X)^2 + cos(X)^2", 0.7, 0.0, 0.0, 1.0),
		Entry("exp and log", "log(exp(X))", 1.25, 0.0, 0.0, 1.25),
		Entry("abs and sqrt", "sqrt(abs(X))", -16.0, 0.0, 0.0, 4.0),
		Entry("nested folding", "X * (2 + 3) / (10 - 5)", 7.0, 0.0, 0.0, 7.0),
		Entry("min max", "max(X, Y) - min(X, Y)", 2.0, 5.0, 0.0, 3.0),
	)

	DescribeTable("propagates IEEE anomalies instead of failing",
		func(src string, x float64, check func(float64) bool) {
			got := compile(src).Evaluate(map[string]float64{"X": x, "Y": 0, "k": 0})
			Expect(check(got)).To(BeTrue(), "got %v", got)
		},
		Entry("0/0", "X/0", 0.0, math.IsNaN),
		Entry("x/0", "X/0", 1.0, func(v float64) bool { return math.IsInf(v, 1) }),
		Entry("-x/0", "X/0", -1.0, func(v float64) bool { return math.IsInf(v, -1) }),
		Entry("sqrt of negative", "sqrt(X)", -1.0, math.IsNaN),
		Entry("log of negative", "log(X)", -1.0, math.IsNaN),
		Entry("log of zero", "log(X)", 0.0, func(v float64) bool { return math.IsInf(v, -1) }),
		Entry("overflow", "exp(X)", 1000.0, func(v float64) bool { return math.IsInf(v, 1) }),
	)

	It("never panics for any binding of vocabulary names", func() {
		formulas := []string{"k*X*(1-X)", "log(X)/Y", "sqrt(X-Y)^k", "tan(X)/sin(Y)", "pow(X, Y) - exp(k)"}
		values := []float64{0, -1, 1, 1e308, -1e308, math.NaN(), math.Inf(1), math.Inf(-1), 0.5}
		for _, src := range formulas {
			e := compile(src)
			for _, x := range values {
				for _, y := range values {
					b := map[string]float64{"X": x, "Y": y, "k": x - y}
					Expect(func() { _ = e.Evaluate(b) }).NotTo(Panic())
				}
			}
		}
	})

	It("panics when a vocabulary name is not bound", func() {
		e := compile("k*X")
		Expect(func() { e.Evaluate(map[string]float64{"X": 1, "Y": 0}) }).To(PanicWith(ContainSubstring(`"k"`)))
	})

	It("agrees between map and slot evaluation", func() {
		e := compile("k*X*(1-X) + Y")
		byName := e.Evaluate(map[string]float64{"X": 0.3, "Y": -0.2, "k": 2})
		bySlot := e.EvaluateSlots([]float64{0.3, -0.2, 2})
		Expect(bySlot).To(Equal(byName))
	})

	It("is reusable across calls without state leaking", func() {
		e := compile("k*X")
		Expect(e.EvaluateSlots([]float64{2, 0, 3})).To(Equal(6.0))
		Expect(e.EvaluateSlots([]float64{5, 0, 1})).To(Equal(5.0))
		Expect(e.EvaluateSlots([]float64{2, 0, 3})).To(Equal(6.0))
	})

	It("handles programs deeper than the inline stack", func() {
		src := "X"
		for i := 0; i < 40; i++ {
			src = "X + (" + src + ")"
		}
		Expect(compile(src).EvaluateSlots([]float64{1, 0, 0})).To(Equal(41.0))
	})

	It("is safe for concurrent evaluation", func() {
		e := compile("k*X*(1-X)")
		var wg sync.WaitGroup
		results := make([]float64, 8)
		for i := range results {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				defer GinkgoRecover()
				for j := 0; j < 1000; j++ {
					results[i] = e.EvaluateSlots([]float64{0.5, 0, 4})
				}
			}(i)
		}
		wg.Wait()
		for _, r := range results {
			Expect(r).To(Equal(1.0))
		}
	})

	It("reports referenced names", func() {
		e := compile("k*X")
		Expect(e.Uses("X")).To(BeTrue())
		Expect(e.Uses("k")).To(BeTrue())
		Expect(e.Uses("Y")).To(BeFalse())
		Expect(e.Uses("nope")).To(BeFalse())
	})

	It("keeps the source text and vocabulary", func() {
		e := compile("k*X*(1-X)")
		Expect(e.String()).To(Equal("k*X*(1-X)"))
		Expect(e.Vocabulary()).To(BeIdenticalTo(vocab))
		Expect(e.AST().String()).To(Equal("((k * X) * (1 - X))"))
	})

	It("refuses to compile invalid trees", func() {
		_, err := expr.CompileString("k*X", expr.NewVocabulary("X"))
		Expect(err).To(MatchError(expr.ErrUnknownIdentifier))
		_, err = expr.CompileString("k*", vocab)
		Expect(err).To(MatchError(expr.ErrUnexpectedToken))
	})
})

var _ = Describe("Cache", func() {
	It("returns the same instance for repeated sources", func() {
		c := expr.NewCache(4)
		v := expr.NewVocabulary("X")
		a, err := c.GetOrCompile("X*(1-X)", v)
		Expect(err).NotTo(HaveOccurred())
		b, err := c.GetOrCompile("X*(1-X)", v)
		Expect(err).NotTo(HaveOccurred())
		Expect(b).To(BeIdenticalTo(a))
		Expect(c.Len()).To(Equal(1))
	})

	It("keys on the vocabulary too", func() {
		c := expr.NewCache(4)
		a, _ := c.GetOrCompile("X", expr.NewVocabulary("X"))
		b, _ := c.GetOrCompile("X", expr.NewVocabulary("X", "k"))
		Expect(b).NotTo(BeIdenticalTo(a))
		Expect(c.Len()).To(Equal(2))
	})

	It("evicts the least recently used entry", func() {
		c := expr.NewCache(2)
		v := expr.NewVocabulary("X")
		first, _ := c.GetOrCompile("X+1", v)
		_, _ = c.GetOrCompile("X+2", v)
		_, _ = c.GetOrCompile("X+1", v)
		_, _ = c.GetOrCompile("X+3", v)
		Expect(c.Len()).To(Equal(2))

		again, _ := c.GetOrCompile("X+1", v)
		Expect(again).To(BeIdenticalTo(first))
	})

	It("does not cache failures", func() {
		c := expr.NewCache(2)
		_, err := c.GetOrCompile("X+", expr.NewVocabulary("X"))
		Expect(err).To(HaveOccurred())
		Expect(c.Len()).To(Equal(0))
		c.Purge()
		Expect(c.Len()).To(Equal(0))
	})
})
