// Package postprocess fixes typesetting conventions of the destination
// language in translated text. Rules are plain search/replace steps applied
// in order; later rules may rely on what earlier ones normalized.
package postprocess

import (
	"regexp"
	"strings"

	"translatex/internal/logger"
)

// Rule is one search/replace step.
type Rule struct {
	Name  string
	apply func(string) string
}

// Apply runs the rule on s.
func (r Rule) Apply(s string) string {
	return r.apply(s)
}

// Replace returns a rule replacing every occurrence of old with new.
func Replace(name, old, new string) Rule {
	return Rule{Name: name, apply: func(s string) string {
		return strings.ReplaceAll(s, old, new)
	}}
}

// Regexp returns a rule replacing every match of pattern with repl, which
// may refer to submatches as $1.
func Regexp(name, pattern, repl string) Rule {
	re := regexp.MustCompile(pattern)
	return Rule{Name: name, apply: func(s string) string {
		return re.ReplaceAllString(s, repl)
	}}
}

// Postprocessor holds the ordered rules for one destination language.
type Postprocessor struct {
	lang     string
	leaf     []Rule
	document []Rule
}

// New returns a postprocessor with the given rule lists.
func New(lang string, leaf, document []Rule) *Postprocessor {
	return &Postprocessor{lang: lang, leaf: leaf, document: document}
}

// ForLanguage returns the rules for the destination language code. Unknown
// languages get the language-neutral rules only.
func ForLanguage(code string) *Postprocessor {
	var leaf []Rule
	switch code {
	case "ru":
		leaf = russianRules()
	case "en":
		leaf = englishRules()
	case "de":
		leaf = germanRules()
	case "fr":
		leaf = frenchRules()
	}
	leaf = append(leaf, quoteSpacingRules()...)
	return New(code, leaf, citationRules())
}

// Language returns the language code the rules were built for.
func (p *Postprocessor) Language() string {
	return p.lang
}

// Leaf applies the leaf rules to the translated text of one character run.
// Math never reaches this point, so dash rules are safe here.
func (p *Postprocessor) Leaf(s string) string {
	return run(p.leaf, s)
}

// Document applies the document rules to fully assembled LaTeX source.
func (p *Postprocessor) Document(s string) string {
	out := run(p.document, s)
	if out != s {
		logger.Debug("postprocessor made changes to document",
			logger.String("lang", p.lang),
			logger.Int("originalLen", len(s)),
			logger.Int("fixedLen", len(out)))
	}
	return out
}

func run(rules []Rule, s string) string {
	for _, r := range rules {
		s = r.Apply(s)
	}
	return s
}

// russianRules must replace guillemets before the generic quote spacing
// rules see the result.
func russianRules() []Rule {
	return []Rule{
		Replace("open-guillemet", "«", "``"),
		Replace("close-guillemet", "»", "''"),
		Replace("abbrev-td", "т. Д.", `т.\,д.`),
		Replace("abbrev-tp", "т. П.", `т.\,п.`),
		Replace("abbrev-td-lower", "т. д.", `т.\,д.`),
		Replace("abbrev-tp-lower", "т. п.", `т.\,п.`),
		Replace("em-dash", " - ", "~--- "),
	}
}

func englishRules() []Rule {
	return []Rule{
		Replace("open-double-quote", "“", "``"),
		Replace("close-double-quote", "”", "''"),
		Replace("open-single-quote", "‘", "`"),
		Replace("apostrophe", "’", "'"),
	}
}

// germanRules handle „…“ pairs, so the low opening quote goes first.
func germanRules() []Rule {
	return []Rule{
		Regexp("open-low-quote", `„\s*`, `\glqq{}`),
		Regexp("close-quote", `\s*“`, `\grqq{}`),
		Replace("apostrophe", "’", "'"),
	}
}

func frenchRules() []Rule {
	return []Rule{
		Regexp("open-guillemet", `«\s*`, `\og{} `),
		Regexp("close-guillemet", `\s*»`, `\fg{}`),
		Replace("apostrophe", "’", "'"),
	}
}

// quoteSpacingRules remove the blanks translators put inside TeX quotes.
func quoteSpacingRules() []Rule {
	return []Rule{
		Regexp("open-quote-space", "``[ \t]+", "``"),
		Regexp("close-quote-space", "[ \t]+''", "''"),
	}
}

func citationRules() []Rule {
	return []Rule{
		Replace("split-cite", `\ cite `, `\cite`),
		Replace("tie-cite", ` ~ \cite`, `~\cite`),
	}
}
