package signal

import (
	"fmt"
	"math"
	"strings"
)

// Result is the outcome of one strategy evaluation
type Result struct {
	Strategy   string      `json:"strategy"`
	Confirmed  bool        `json:"confirmed"`
	Score      float64     `json:"score"`
	Trigger    string      `json:"trigger,omitempty"`
	Conditions []Condition `json:"conditions"`
}

// Passed returns the number of conditions that held
func (r Result) Passed() int {
	n := 0
	for _, c := range r.Conditions {
		if c.Passed {
			n++
		}
	}
	return n
}

// Condition returns the named condition of the result
func (r Result) Condition(name string) (Condition, bool) {
	for _, c := range r.Conditions {
		if c.Name == name {
			return c, true
		}
	}
	return Condition{}, false
}

// Summary renders the conditions as "name: [v] | name: [x]"
func (r Result) Summary() string {
	parts := make([]string, 0, len(r.Conditions))
	for _, c := range r.Conditions {
		parts = append(parts, fmt.Sprintf("%s: [%s]", c.Name, FormatBool(c.Passed)))
	}
	if r.Trigger != "" {
		parts = append(parts, "trigger: "+r.Trigger)
	}
	return strings.Join(parts, " | ")
}

// FormatBool renders a condition outcome as a v/x marker
func FormatBool(b bool) string {
	if b {
		return "v"
	}
	return "x"
}

// aggregate builds a result confirmed only when every condition holds, scored
// as round(5 x passed / total) to the given number of decimals. Ties round to
// even, so 2 of 4 conditions score 2 rather than 3.
func aggregate(strategy string, decimals int, conditions ...Condition) Result {
	r := Result{
		Strategy:   strategy,
		Confirmed:  len(conditions) > 0,
		Conditions: conditions,
	}
	for _, c := range conditions {
		if !c.Passed {
			r.Confirmed = false
		}
	}
	if len(conditions) > 0 {
		r.Score = roundTo(5*float64(r.Passed())/float64(len(conditions)), decimals)
	}
	return r
}

func roundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.RoundToEven(v*p) / p
}
