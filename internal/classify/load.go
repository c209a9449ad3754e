package classify

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"translatex/internal/latex"
	"translatex/internal/logger"
	"translatex/internal/types"
)

// RuleFile is the YAML layout of a rule file:
//
//	mode: extend        # or replace
//	min_letters: 2
//	stop:
//	  - kind: macro
//	    names: [todo, fixme]
//	include:
//	  - kind: environment
//	    names: [abstract]
//	    top_level: false
type RuleFile struct {
	Mode       string    `yaml:"mode"`
	MinLetters *int      `yaml:"min_letters"`
	Stop       []RuleDef `yaml:"stop"`
	Include    []RuleDef `yaml:"include"`
	Exclude    []RuleDef `yaml:"exclude"`
}

// RuleDef is one rule in a rule file. Empty fields do not constrain.
type RuleDef struct {
	Kind     string   `yaml:"kind"`
	Names    []string `yaml:"names"`
	TopLevel bool     `yaml:"top_level"`
}

// Rule converts the definition into a Rule.
func (s RuleDef) Rule() (Rule, error) {
	var conds []Cond
	if s.TopLevel {
		conds = append(conds, TopLevel())
	}
	if s.Kind != "" {
		k, ok := latex.ParseKind(s.Kind)
		if !ok {
			return Rule{}, fmt.Errorf("unknown node kind %q", s.Kind)
		}
		conds = append(conds, NodeKindIs(k))
	}
	if len(s.Names) > 0 {
		conds = append(conds, NameIn(s.Names...))
	}
	if len(conds) == 0 {
		return Rule{}, fmt.Errorf("rule has no conditions")
	}
	return NewRule(conds...), nil
}

// LoadRules reads a YAML rule file and applies it to the default classifier.
func LoadRules(path string) (*Classifier, error) {
	return LoadRulesOnto(path, DefaultClassifier())
}

// LoadRulesOnto reads a YAML rule file and applies it to base.
func LoadRulesOnto(path string, base *Classifier) (*Classifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.NewAppErrorWithDetails(types.ErrFile, "failed to read rule file", path, err)
	}
	c, err := ParseRules(data, base)
	if err != nil {
		return nil, err
	}
	logger.Info("classification rules loaded",
		logger.String("path", path),
		logger.Int("stop", len(c.StopRules)),
		logger.Int("include", len(c.IncludeRules)),
		logger.Int("exclude", len(c.ExcludeRules)))
	return c, nil
}

// ParseRules applies YAML rule data to base and returns the result. In
// "extend" mode (the default) the file's rules are appended to base's
// lists; in "replace" mode they replace them.
func ParseRules(data []byte, base *Classifier) (*Classifier, error) {
	var f RuleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, types.NewAppError(types.ErrConfig, "invalid rule file", err)
	}

	out := &Classifier{Filter: base.Filter}
	switch f.Mode {
	case "", "extend":
		out.StopRules = append(out.StopRules, base.StopRules...)
		out.IncludeRules = append(out.IncludeRules, base.IncludeRules...)
		out.ExcludeRules = append(out.ExcludeRules, base.ExcludeRules...)
	case "replace":
	default:
		return nil, types.NewAppErrorWithDetails(types.ErrConfig, "invalid rule file mode", f.Mode, nil)
	}

	lists := []struct {
		name string
		defs []RuleDef
		dst  *[]Rule
	}{
		{"stop", f.Stop, &out.StopRules},
		{"include", f.Include, &out.IncludeRules},
		{"exclude", f.Exclude, &out.ExcludeRules},
	}
	for _, l := range lists {
		for i, def := range l.defs {
			r, err := def.Rule()
			if err != nil {
				return nil, types.NewAppErrorWithDetails(types.ErrConfig, "invalid rule",
					fmt.Sprintf("%s[%d]", l.name, i), err)
			}
			*l.dst = append(*l.dst, r)
		}
	}

	if f.MinLetters != nil {
		if *f.MinLetters < 0 {
			return nil, types.NewAppErrorWithDetails(types.ErrConfig, "min_letters must not be negative",
				fmt.Sprint(*f.MinLetters), nil)
		}
		out.Filter = MinLetters(*f.MinLetters)
	}
	return out, nil
}
