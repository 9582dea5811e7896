// Package categorizer assigns spending categories to transactions using an
// ordered list of keyword rules.
package categorizer

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"movimenti/internal/core"
)

//go:embed rules.yaml
var embeddedRules []byte

// Kind restricts which transaction direction a rule applies to.
type Kind string

const (
	KindStandard Kind = "standard"
	KindIncome   Kind = "income"
	KindRefund   Kind = "refund"
)

// Rule maps any of its keywords to a category. Keywords are matched as
// case-insensitive substrings of the description.
type Rule struct {
	Category core.Category `yaml:"category"`
	Kind     Kind          `yaml:"kind"`
	Keywords []string      `yaml:"keywords"`
}

type ruleSet struct {
	Rules []Rule `yaml:"rules"`
}

// Categorizer is immutable after construction and safe for concurrent use.
type Categorizer struct {
	standard []Rule
	income   []Rule
	refund   []Rule
	all      []Rule
}

// New validates rules and builds a categorizer preserving their order.
func New(rules []Rule) (*Categorizer, error) {
	c := &Categorizer{}
	for i, r := range rules {
		if !r.Category.Known() {
			return nil, fmt.Errorf("rule %d: invalid category %q", i, r.Category)
		}
		if len(r.Keywords) == 0 {
			return nil, fmt.Errorf("rule %d (%s): no keywords", i, r.Category)
		}
		kw := make([]string, 0, len(r.Keywords))
		for _, k := range r.Keywords {
			k = strings.ToLower(k)
			if strings.TrimSpace(k) == "" {
				return nil, fmt.Errorf("rule %d (%s): keyword cannot be empty", i, r.Category)
			}
			kw = append(kw, k)
		}
		r.Keywords = kw

		switch r.Kind {
		case KindStandard, "":
			r.Kind = KindStandard
			c.standard = append(c.standard, r)
		case KindIncome:
			if r.Category != core.Income {
				return nil, fmt.Errorf("rule %d (%s): income rules must map to %q", i, r.Category, core.Income)
			}
			c.income = append(c.income, r)
		case KindRefund:
			if r.Category != core.Refund {
				return nil, fmt.Errorf("rule %d (%s): refund rules must map to %q", i, r.Category, core.Refund)
			}
			c.refund = append(c.refund, r)
		default:
			return nil, fmt.Errorf("rule %d (%s): invalid kind %q", i, r.Category, r.Kind)
		}
		c.all = append(c.all, r)
	}
	return c, nil
}

// Parse builds a categorizer from YAML rule data.
func Parse(data []byte) (*Categorizer, error) {
	var rs ruleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("failed to parse YAML rules: %w", err)
	}
	if len(rs.Rules) == 0 {
		return nil, fmt.Errorf("no rules defined")
	}
	return New(rs.Rules)
}

// Default loads the rules compiled into the binary.
func Default() (*Categorizer, error) {
	c, err := Parse(embeddedRules)
	if err != nil {
		return nil, fmt.Errorf("failed to load embedded rules: %w", err)
	}
	return c, nil
}

// LoadFile loads rules from path, or the embedded rules when path is empty.
func LoadFile(path string) (*Categorizer, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules from %q: %w", path, err)
	}
	return c, nil
}

// Categorize returns the category for a description and direction.
//
// Credits try income rules, then refund rules, and default to income.
// Debits try the standard rules in order and default to other.
func (c *Categorizer) Categorize(description string, direction core.Direction) (core.Category, error) {
	desc := strings.ToLower(description)
	switch direction {
	case core.Credit:
		if cat, ok := firstMatch(c.income, desc); ok {
			return cat, nil
		}
		if cat, ok := firstMatch(c.refund, desc); ok {
			return cat, nil
		}
		return core.Income, nil
	case core.Debit:
		if cat, ok := firstMatch(c.standard, desc); ok {
			return cat, nil
		}
		return core.Other, nil
	}
	return "", &core.InvalidDirectionError{Value: string(direction)}
}

// Apply returns categorized copies of txns. Transactions with an invalid
// direction keep an empty category and their IDs are returned in skipped.
func (c *Categorizer) Apply(txns []core.Transaction) (out []core.Transaction, skipped []string) {
	out = make([]core.Transaction, len(txns))
	for i, t := range txns {
		cat, err := c.Categorize(t.Description, t.Direction)
		if err != nil {
			t.Category = ""
			skipped = append(skipped, t.ID)
		} else {
			t.Category = cat
		}
		out[i] = t
	}
	return out, skipped
}

// Rules returns a copy of the rules in declared order.
func (c *Categorizer) Rules() []Rule {
	out := make([]Rule, len(c.all))
	for i, r := range c.all {
		r.Keywords = append([]string(nil), r.Keywords...)
		out[i] = r
	}
	return out
}

func firstMatch(rules []Rule, desc string) (core.Category, bool) {
	if desc == "" {
		return "", false
	}
	for _, r := range rules {
		for _, k := range r.Keywords {
			if strings.Contains(desc, k) {
				return r.Category, true
			}
		}
	}
	return "", false
}
