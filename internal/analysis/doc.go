// Package analysis performs qualitative analysis of the systems built by
// package dynamo.
//
//   - [AnalyzePhaseLine]: equilibria, stability and degenerate intervals of
//     a one-dimensional system over a bounded domain
//   - [SweepParameter]: phase-line equilibria as one parameter varies
//   - [GeneratePhasePortrait]: trajectory of a planar system
//   - [VectorField]: direction grid of a planar system
//
// # Phase lines
//
// The analyzer samples f on a uniform grid. Runs of near-zero samples are
// reported as degenerate intervals; isolated roots are refined by
// bisection and classified by probing f on either side:
//
//	pl, err := analysis.AnalyzePhaseLine(sys, nil, -0.5, 1.5, analysis.DefaultConfig())
//	for _, eq := range pl.Equilibria {
//	    fmt.Println(eq.X, eq.Stability)
//	}
//
// Results depend only on the formula, parameters, domain and Config.
package analysis
