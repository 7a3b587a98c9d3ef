package model

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// The only axis a build matrix fans out over.
const CommandAxis = "command"

// The single value of the command axis in a build that isn't parallelized.
const MainCombinationValue = "main"

// Axis is one dimension of a build matrix.
type Axis struct {
	Name   string   `yaml:"name"`
	Values []string `yaml:"values"`
}

type AxisList []Axis

// Combinations enumerates every assignment of one value per axis.
// Axis order and value order are preserved, so the fan-out is reproducible.
func (l AxisList) Combinations() []Combination {
	if len(l) == 0 {
		return nil
	}
	res := []Combination{{}}
	for _, axis := range l {
		var next []Combination
		for _, c := range res {
			for _, v := range axis.Values {
				nc := make(Combination, len(c)+1)
				for k, cv := range c {
					nc[k] = cv
				}
				nc[axis.Name] = v
				next = append(next, nc)
			}
		}
		res = next
	}
	return res
}

// Combination is one concrete value assignment within a build matrix.
type Combination map[string]string

func NewCommandCombination(value string) Combination {
	return Combination{CommandAxis: value}
}

func (c Combination) Get(axis string) string {
	return c[axis]
}

// String renders the combination as comma-separated axis=value pairs,
// sorted by axis name.
func (c Combination) String() string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%s", k, c[k])
	}
	return strings.Join(parts, ",")
}

// ParseCombination parses the form produced by String, e.g. "command=test".
func ParseCombination(s string) (Combination, error) {
	c := Combination{}
	if strings.TrimSpace(s) == "" {
		return c, nil
	}
	for _, part := range strings.Split(s, ",") {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 || kv[0] == "" || kv[1] == "" {
			return nil, errors.Errorf("malformed combination %q: expected axis=value", s)
		}
		c[strings.TrimSpace(kv[0])] = strings.TrimSpace(kv[1])
	}
	return c, nil
}
