package translator

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"testing/quick"
	"unicode/utf8"

	"translatex/internal/backend"
	"translatex/internal/chunk"
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
	"\\section{A heading}\n",
	"Inline $x^2$ math. ",
	"\\textbf{bold text} ",
	"\\emph{some emphasis} and more. ",
	"\\label{sec:x} ",
	"\\begin{itemize}\n\\item first thing\n\\item second thing\n\\end{itemize}\n",
	"% a comment\n",
	"Para one.\n\nPara two. ",
	"Indented one.\n  \n\tIndented two. ",
	"{\\small small words} ",
	"\\cite{key} ",
	"3 - ",
	"\\begin{equation}\na=b\n\\end{equation}\n",
	"\\begin{figure}[h]\n\\caption{A caption}\n\\end{figure}\n",
	"\t  spaced   out  \n",
}

func randomSource(r *rand.Rand) string {
	var sb strings.Builder
	wrap := r.Intn(2) == 0
	if wrap {
		sb.WriteString("\\begin{document}\n")
	}
	for i := 0; i < r.Intn(10)+1; i++ {
		sb.WriteString(snippets[r.Intn(len(snippets))])
	}
	if wrap {
		sb.WriteString("\\end{document}\n")
	}
	return sb.String()
}

// ============================================================
// Property: Identity Round Trip
// With a backend that returns its input, the output is the input.
// Sources without a preamble get no babel package.
// ============================================================

func TestProperty_IdentityRoundTrip(t *testing.T) {
	f := func(seed int64, budget uint16) bool {
		src := randomSource(rand.New(rand.NewSource(seed)))
		e := newTestEngine(backend.Echo{}, func(o *Options) {
			o.MaxRequestSize = MinRequestSize + int(budget)%400
		})
		res, err := e.TranslateDocument(context.Background(), src)
		if err != nil {
			t.Logf("TranslateDocument(%q) error = %v", src, err)
			return false
		}
		if res.TranslatedContent != src {
			t.Logf("round trip changed\n%q\ninto\n%q", src, res.TranslatedContent)
			return false
		}
		return res.Report.UntranslatedLeaves == 0
	}
	if err := quick.Check(f, quickConfig()); err != nil {
		t.Error(err)
	}
}

// ============================================================
// Property: Size Budget
// Every request is shorter than the budget unless it carries a
// single leaf that cannot be split.
// ============================================================

func TestProperty_RequestsRespectBudget(t *testing.T) {
	f := func(seed int64, budget uint16) bool {
		src := randomSource(rand.New(rand.NewSource(seed)))
		limit := MinRequestSize + int(budget)%200
		e := newTestEngine(backend.Echo{}, func(o *Options) { o.MaxRequestSize = limit })

		plan, err := e.Prepare(src)
		if err != nil {
			t.Logf("Prepare(%q) error = %v", src, err)
			return false
		}
		for _, c := range plan.Chunks {
			if !c.Alternates() {
				t.Logf("chunk does not alternate: %s", c)
				return false
			}
			size := utf8.RuneCountInString(c.Serialize().Text)
			if size != c.EstimatedSize() {
				t.Logf("estimated %d, serialized %d", c.EstimatedSize(), size)
				return false
			}
			if size >= limit && len(c.Tokens) > 1 {
				t.Logf("chunk of %d chars over budget %d: %s", size, limit, c)
				return false
			}
		}
		return true
	}
	if err := quick.Check(f, quickConfig()); err != nil {
		t.Error(err)
	}
}

// ============================================================
// Property: Bisection Isolates One Damaged Leaf
// A backend that always adds a stray marker after one leaf costs
// a bounded number of requests and leaves only that leaf alone.
// ============================================================

func TestProperty_BisectionIsolatesDamage(t *testing.T) {
	f := func(n, p uint8) bool {
		count := int(n)%40 + 1
		bad := int(p) % count
		words := make([]string, count)
		for i := range words {
			words[i] = fmt.Sprintf("word%d", i)
		}
		words[bad] = "poison"
		c, leaves := newChunk(words...)

		report, err := NewOrchestrator(poisoned(), testOptions()).TranslateChunks(context.Background(), []*chunk.Chunk{c})
		if err != nil {
			return false
		}
		for i, l := range leaves {
			want := strings.ToUpper(words[i])
			if i == bad {
				want = "poison"
			}
			if l.Text != want {
				t.Logf("n=%d bad=%d leaf %d = %q", count, bad, i, l.Text)
				return false
			}
		}
		return report.UntranslatedLeaves == 1 && report.Requests <= 5 && report.Bisections <= 2
	}
	if err := quick.Check(f, quickConfig()); err != nil {
		t.Error(err)
	}
}
