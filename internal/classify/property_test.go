package classify

import (
	"math/rand"
	"strings"
	"testing"
	"testing/quick"

	"translatex/internal/latex"
)

// ============================================================
// Property Test Configuration
// ============================================================

func quickConfig() *quick.Config {
	return &quick.Config{
		MaxCount: 100,
		Rand:     rand.New(rand.NewSource(42)), // Reproducible tests
	}
}

var snippets = []string{
	"Plain words here. ",
	"$x + y$ ",
	"\\textbf{bold {\\it nested} text} ",
	"\\begin{equation}\n\\text{not translated}\n\\end{equation}\n",
	"\\begin{figure}[h]\n\\caption{A \\emph{caption}}\\label{f}\n\\end{figure}\n",
	"\\begin{itemize}\n\\item First\n\\item[b] Second\n\\end{itemize}\n",
	"\\section{Heading}\n",
	"% comment\n",
	"\\cite{key} ",
	"\\begin{thebibliography}{9}\n\\bibitem{a} Some \\textit{book}.\n\\end{thebibliography}\n",
	"{\\small grouped} ",
	"\\unknownmacro{arg} ",
}

func randomDocument(r *rand.Rand) string {
	var sb strings.Builder
	wrap := r.Intn(2) == 0
	if wrap {
		sb.WriteString("\\begin{document}\n")
	}
	for i := 0; i < r.Intn(8)+1; i++ {
		sb.WriteString(snippets[r.Intn(len(snippets))])
	}
	if wrap {
		sb.WriteString("\\end{document}\n")
	}
	return sb.String()
}

// ============================================================
// Property: Stop Monotonicity
// Every descendant of a Stop node is Stop.
// ============================================================

func TestProperty_StopMonotonicity(t *testing.T) {
	c := DefaultClassifier()

	f := func(seed int64) bool {
		r := rand.New(rand.NewSource(seed))
		doc, err := latex.Parse(randomDocument(r))
		if err != nil {
			t.Logf("parse error: %v", err)
			return false
		}

		ok := true
		var visit func(nodes, path []latex.Node, inherited Decision, underStop bool)
		visit = func(nodes, path []latex.Node, inherited Decision, underStop bool) {
			for _, n := range nodes {
				d := c.Decide(n, path, inherited).Decision
				if underStop && d != Stop {
					ok = false
				}
				visit(latex.Children(n), append(path[:len(path):len(path)], n), d, underStop || d == Stop)
			}
		}
		visit(doc.Nodes, nil, Decision(r.Intn(2)), false)
		return ok
	}

	if err := quick.Check(f, quickConfig()); err != nil {
		t.Error(err)
	}
}

// ============================================================
// Property: Idempotence of Classification
// Deciding the same node twice yields the same result.
// ============================================================

func TestProperty_DecideIsPure(t *testing.T) {
	c := DefaultClassifier()

	f := func(seed int64) bool {
		r := rand.New(rand.NewSource(seed))
		doc, err := latex.Parse(randomDocument(r))
		if err != nil {
			return false
		}

		ok := true
		latex.Walk(doc.Nodes, func(n latex.Node, path []latex.Node) bool {
			inherited := Decision(r.Intn(3))
			a := c.Decide(n, path, inherited)
			b := c.Decide(n, path, inherited)
			if a.Decision != b.Decision || a.List != b.List || a.Gap != b.Gap || a.Rule.String() != b.Rule.String() {
				ok = false
			}
			return true
		})
		return ok
	}

	if err := quick.Check(f, quickConfig()); err != nil {
		t.Error(err)
	}
}
