package classify

import "translatex/internal/latex"

// ListEnvironments are the list-like environments whose items are prose.
var ListEnvironments = []string{"description", "enumerate", "itemize", "list"}

// MathEnvironments never contain translatable text.
var MathEnvironments = []string{
	"math", "displaymath", "array", "eqnarray", "eqnarray*", "equation", "equation*",
	"subequations", "multline", "multline*", "gather", "gather*", "align", "align*",
	"alignat", "alignat*", "flalign", "flalign*", "matrix", "pmatrix", "bmatrix",
	"Bmatrix", "vmatrix", "Vmatrix", "smallmatrix", "cases",
}

// TheoremEnvironments hold prose in theorem-like blocks.
var TheoremEnvironments = []string{
	"theorem", "lemma", "proposition", "corollary", "definition", "remark", "example", "proof",
}

func macro(names ...string) Rule {
	return NewRule(NodeKindIs(latex.KindMacro), NameIn(names...))
}

func topMacro(names ...string) Rule {
	return NewRule(TopLevel(), NodeKindIs(latex.KindMacro), NameIn(names...))
}

func env(names ...string) Rule {
	return NewRule(NodeKindIs(latex.KindEnvironment), NameIn(names...))
}

// DefaultStopRules skip preamble declarations, bibliography, math, code and
// cross references.
func DefaultStopRules() []Rule {
	return []Rule{
		topMacro("usepackage"),
		topMacro("newcommand"),
		env("bibliography", "thebibliography", "bibliographystyle"),
		env(MathEnvironments...),
		env("lstlisting", "verbatim", "verbatim*", "Verbatim", "minted", "comment"),
		macro("documentclass", "newenvironment", "renewenvironment", "renewcommand",
			"providecommand", "newtheorem", "setlength"),
		macro("label", "cite", "citep", "citet", "nocite", "eqref", "ref", "pageref",
			"autoref", "cref", "Cref", "color", "verb", "lstinline", "vspace", "hspace", "url"),
		macro("includegraphics", "input", "include", "bibliography", "bibliographystyle",
			"addbibresource"),
		NewRule(NodeKindIs(latex.KindGroup), NameIn("[")),
		NewRule(NodeKindIs(latex.KindComment)),
		NewRule(NodeKindIs(latex.KindMath)),
	}
}

// DefaultIncludeRules promote the document body, headings, text-style
// macros, captions, lists and theorem-like environments.
func DefaultIncludeRules() []Rule {
	return []Rule{
		NewRule(TopLevel(), NodeKindIs(latex.KindEnvironment), NameIn("document")),
		topMacro("title"),
		macro("part", "chapter", "section", "subsection", "subsubsection", "subsubsubsection",
			"paragraph", "subparagraph"),
		macro("textbf", "textit", "texttt", "textsc", "textsf", "textrm", "textsl", "emph",
			"underline", "mbox"),
		macro("caption", "footnote"),
		env(ListEnvironments...),
		env(TheoremEnvironments...),
		env("abstract"),
	}
}

// DefaultExcludeRules demote floats and tables.
func DefaultExcludeRules() []Rule {
	return []Rule{
		env("figure", "figure*", "table", "table*", "picture", "wrapfigure"),
		env("tabular", "tabular*", "tabularx"),
	}
}

// DefaultClassifier returns a classifier with the built-in rule set and the
// MinLetters(2) post-filter.
func DefaultClassifier() *Classifier {
	return &Classifier{
		StopRules:    DefaultStopRules(),
		IncludeRules: DefaultIncludeRules(),
		ExcludeRules: DefaultExcludeRules(),
		Filter:       MinLetters(2),
	}
}
