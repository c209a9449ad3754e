// Package lang validates language pairs and manages the babel package
// declaration that makes LaTeX hyphenate and quote in the target language.
package lang

import (
	"sort"
	"strings"

	"golang.org/x/text/language"

	"translatex/internal/latex"
	"translatex/internal/logger"
	"translatex/internal/types"
)

// babelOptions maps supported base languages to their babel option names.
var babelOptions = map[string]string{
	"en": "english",
	"ru": "russian",
	"de": "ngerman",
	"fr": "french",
	"es": "spanish",
}

// Supported returns the supported language codes, sorted.
func Supported() []string {
	codes := make([]string, 0, len(babelOptions))
	for code := range babelOptions {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Canonical parses a BCP 47 tag such as "RU", "en-US" or "de_DE" and returns
// its base language code if it is supported.
func Canonical(code string) (string, error) {
	tag, err := language.Parse(strings.ReplaceAll(strings.TrimSpace(code), "_", "-"))
	if err != nil {
		return "", types.NewAppErrorWithDetails(types.ErrInvalidInput, "invalid language code", code, err)
	}
	base, _ := tag.Base()
	if _, ok := babelOptions[base.String()]; !ok {
		return "", types.NewAppErrorWithDetails(types.ErrInvalidInput, "unsupported language", code, nil)
	}
	return base.String(), nil
}

// Validate checks a source/destination pair and returns the canonical codes.
func Validate(src, dst string) (string, string, error) {
	s, err := Canonical(src)
	if err != nil {
		return "", "", err
	}
	d, err := Canonical(dst)
	if err != nil {
		return "", "", err
	}
	if s == d {
		return "", "", types.NewAppErrorWithDetails(types.ErrInvalidInput,
			"source and destination languages are the same", s, nil)
	}
	return s, d, nil
}

// BabelOption returns the babel option for a supported language code.
func BabelOption(code string) (string, bool) {
	opt, ok := babelOptions[code]
	return opt, ok
}

const babelComment = " added language package"

// EnsureBabel makes the preamble load babel with the option for dst. An
// existing \usepackage[...]{babel} gets the option appended; otherwise a new
// declaration goes before the first \usepackage, or after \documentclass.
// Fragments with neither are left alone. It reports whether doc changed.
func EnsureBabel(doc *latex.Document, dst string) bool {
	opt, ok := BabelOption(dst)
	if !ok {
		return false
	}

	firstPackage, docClass := -1, -1
	for i, n := range doc.Nodes {
		m, ok := n.(*latex.Macro)
		if !ok {
			continue
		}
		switch m.Name {
		case "documentclass":
			if docClass < 0 {
				docClass = i
			}
		case "usepackage":
			if firstPackage < 0 {
				firstPackage = i
			}
			if isBabel(m) {
				return addOption(m, opt)
			}
		}
	}

	switch {
	case firstPackage >= 0:
		doc.Insert(firstPackage, newBabel(opt), &latex.Chars{Text: " "},
			&latex.Comment{Text: babelComment}, &latex.Chars{Text: "\n"})
	case docClass >= 0:
		doc.Insert(docClass+1, &latex.Chars{Text: "\n"}, newBabel(opt),
			&latex.Chars{Text: " "}, &latex.Comment{Text: babelComment})
	default:
		logger.Debug("no preamble found, babel package not added")
		return false
	}
	logger.Info("added babel package", logger.String("option", opt))
	return true
}

func newBabel(opt string) *latex.Macro {
	return &latex.Macro{Name: "usepackage", Args: []*latex.Group{
		{Open: "[", Close: "]", Children: []latex.Node{&latex.Chars{Text: opt}}},
		{Open: "{", Close: "}", Children: []latex.Node{&latex.Chars{Text: "babel"}}},
	}}
}

// isBabel reports whether m is \usepackage{...} naming babel.
func isBabel(m *latex.Macro) bool {
	if len(m.Args) == 0 {
		return false
	}
	last := m.Args[len(m.Args)-1]
	if last.Open != "{" {
		return false
	}
	for _, name := range strings.Split(latex.Text(last.Children), ",") {
		if strings.TrimSpace(name) == "babel" {
			return true
		}
	}
	return false
}

func addOption(m *latex.Macro, opt string) bool {
	if len(m.Args) > 1 && m.Args[0].Open == "[" {
		options := m.Args[0]
		for _, o := range strings.Split(latex.Text(options.Children), ",") {
			if strings.TrimSpace(o) == opt {
				return false
			}
		}
		sep := ","
		if len(options.Children) == 0 {
			sep = ""
		}
		options.Children = append(options.Children, &latex.Chars{Text: sep + opt})
		logger.Info("added option to babel package", logger.String("option", opt))
		return true
	}

	optGroup := &latex.Group{Open: "[", Close: "]", Children: []latex.Node{&latex.Chars{Text: opt}}}
	m.Args = append([]*latex.Group{optGroup}, m.Args...)
	logger.Info("added option to babel package", logger.String("option", opt))
	return true
}
