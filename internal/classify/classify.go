// Package classify decides, for every node of a LaTeX tree, whether its text
// is translated, kept as an opaque unit, or skipped together with all of its
// descendants.
package classify

import (
	"translatex/internal/latex"
)

// Decision is the classification of a node.
type Decision int

const (
	// Opaque nodes are kept as one untranslated unit; they still bound chunks.
	Opaque Decision = iota
	// Translate nodes have their character runs sent to the backend.
	Translate
	// Stop nodes are skipped along with every descendant.
	Stop
)

// String returns the decision name.
func (d Decision) String() string {
	switch d {
	case Opaque:
		return "opaque"
	case Translate:
		return "translate"
	case Stop:
		return "stop"
	default:
		return "unknown"
	}
}

// List names the rule list that produced a decision.
type List string

const (
	ListStop    List = "stop"
	ListInclude List = "include"
	ListExclude List = "exclude"
	ListInherit List = "inherit"
)

// Result is the outcome of classifying one node.
type Result struct {
	Decision Decision
	// List is the rule list that fired, or ListInherit.
	List List
	// Rule is the matching rule; zero when List is ListInherit.
	Rule Rule
	// Gap is set for macros and environments that no rule in any list
	// could match. The decision is then inherited.
	Gap bool
}

// Classifier holds the three ordered rule lists and the leaf post-filter.
type Classifier struct {
	StopRules    []Rule
	IncludeRules []Rule
	ExcludeRules []Rule
	// Filter accepts or rejects Translate-classified character runs. Nil
	// means MinLetters(2).
	Filter LeafFilter
}

// Decide classifies n given its ancestors and the decision inherited from
// its parent. It is a pure function of its arguments.
func (c *Classifier) Decide(n latex.Node, path []latex.Node, inherited Decision) Result {
	if inherited == Stop {
		return Result{Decision: Stop, List: ListInherit}
	}

	if r, ok := firstMatch(c.StopRules, n, path); ok {
		return Result{Decision: Stop, List: ListStop, Rule: r}
	}

	switch inherited {
	case Translate:
		if r, ok := firstMatch(c.ExcludeRules, n, path); ok {
			return Result{Decision: Opaque, List: ListExclude, Rule: r}
		}
	case Opaque:
		if r, ok := firstMatch(c.IncludeRules, n, path); ok {
			return Result{Decision: Translate, List: ListInclude, Rule: r}
		}
	}

	return Result{Decision: inherited, List: ListInherit, Gap: c.isGap(n)}
}

// Accept applies the leaf post-filter to a character run.
func (c *Classifier) Accept(text string) bool {
	if c.Filter == nil {
		return defaultFilter(text)
	}
	return c.Filter(text)
}

func firstMatch(rules []Rule, n latex.Node, path []latex.Node) (Rule, bool) {
	for _, r := range rules {
		if r.Match(n, path) {
			return r, true
		}
	}
	return Rule{}, false
}

func (c *Classifier) isGap(n latex.Node) bool {
	if k := n.Kind(); k != latex.KindMacro && k != latex.KindEnvironment {
		return false
	}
	for _, rules := range [][]Rule{c.StopRules, c.IncludeRules, c.ExcludeRules} {
		for _, r := range rules {
			if r.matchIgnoringPosition(n) {
				return false
			}
		}
	}
	return true
}
