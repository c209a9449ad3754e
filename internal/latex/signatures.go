package latex

// Argument signatures: '[' is an optional bracketed argument, '{' a
// mandatory braced one. Commands not listed take no arguments.
var macroSignatures = map[string]string{
	"part":              "[{",
	"chapter":           "[{",
	"section":           "[{",
	"subsection":        "[{",
	"subsubsection":     "[{",
	"paragraph":         "[{",
	"subparagraph":      "[{",
	"caption":           "[{",
	"footnote":          "[{",
	"title":             "[{",
	"author":            "[{",
	"date":              "{",
	"thanks":            "{",
	"textbf":            "{",
	"textit":            "{",
	"texttt":            "{",
	"textsc":            "{",
	"textsf":            "{",
	"textrm":            "{",
	"textsl":            "{",
	"textup":            "{",
	"emph":              "{",
	"underline":         "{",
	"mbox":              "{",
	"label":             "{",
	"ref":               "{",
	"pageref":           "{",
	"eqref":             "{",
	"autoref":           "{",
	"cref":              "{",
	"Cref":              "{",
	"cite":              "[{",
	"citep":             "[[{",
	"citet":             "[[{",
	"nocite":            "{",
	"url":               "{",
	"href":              "{{",
	"color":             "[{",
	"textcolor":         "[{{",
	"vspace":            "{",
	"hspace":            "{",
	"includegraphics":   "[{",
	"input":             "{",
	"include":           "{",
	"usepackage":        "[{",
	"documentclass":     "[{",
	"bibliography":      "{",
	"bibliographystyle": "{",
	"addbibresource":    "[{",
	"newcommand":        "{[[{",
	"renewcommand":      "{[[{",
	"providecommand":    "{[[{",
	"newenvironment":    "{[[{{",
	"renewenvironment":  "{[[{{",
	"newtheorem":        "{[{[",
	"setlength":         "{{",
	"item":              "[",
	"frac":              "{{",
	"sqrt":              "[{",
	"mathbf":            "{",
	"mathrm":            "{",
	"mathcal":           "{",
	"text":              "{",
}

var environmentSignatures = map[string]string{
	"figure":          "[",
	"figure*":         "[",
	"table":           "[",
	"table*":          "[",
	"tabular":         "[{",
	"tabular*":        "{[{",
	"tabularx":        "{{",
	"minipage":        "[{",
	"thebibliography": "{",
	"lstlisting":      "[",
	"minted":          "[{",
	"array":           "[{",
	"alignat":         "{",
	"alignat*":        "{",
	"theorem":         "[",
	"lemma":           "[",
	"proposition":     "[",
	"corollary":       "[",
	"definition":      "[",
	"remark":          "[",
	"example":         "[",
	"proof":           "[",
	"enumerate":       "[",
	"itemize":         "[",
	"description":     "[",
	"list":            "{{",
	"wrapfigure":      "[{{",
}

// Environments whose body is kept as raw text.
var verbatimEnvironments = map[string]bool{
	"verbatim":   true,
	"verbatim*":  true,
	"Verbatim":   true,
	"lstlisting": true,
	"minted":     true,
	"comment":    true,
}

// Macros whose argument is delimited by an arbitrary character.
var verbatimMacros = map[string]bool{
	"verb":      true,
	"lstinline": true,
}
