// Package scenario loads YAML descriptions of list exercises and runs them
// against a linkedlist.List.
//
// A scenario names the initial payloads, an optional asserted length that may
// disagree with them, optional corruptions applied before the list is
// created, and a sequence of steps.
package scenario

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Op names a scenario step.
type Op string

// Supported operations.
const (
	OpInsert   Op = "insert"
	OpAppend   Op = "append"
	OpPosition Op = "position"
	OpNode     Op = "node"
	OpVerify   Op = "verify"
	OpDestroy  Op = "destroy"
)

var (
	// ErrInvalidScenario is returned when a scenario file is malformed.
	ErrInvalidScenario = errors.New("invalid scenario")
	// ErrDuplicatePayload is returned when a payload would name two nodes.
	// Steps address nodes by payload, so payloads must be unique.
	ErrDuplicatePayload = errors.New("duplicate payload")
)

// Scenario is the parsed form of a scenario file.
type Scenario struct {
	Name     string       `yaml:"name"`
	Payloads []string     `yaml:"payloads"`
	Length   *int         `yaml:"length,omitempty"`
	Corrupt  []Corruption `yaml:"corrupt,omitempty"`
	Steps    []Step       `yaml:"steps"`
}

// Corruption damages the initial chain before the list is created.
type Corruption struct {
	// BreakPrev clears the back-reference of the node at this index.
	BreakPrev *int `yaml:"break_prev,omitempty"`
	// BreakNext clears the forward reference of the node at this index.
	BreakNext *int `yaml:"break_next,omitempty"`
}

// Step is a single operation.
type Step struct {
	Op       Op     `yaml:"op"`
	Payload  string `yaml:"payload,omitempty"`
	Position int    `yaml:"position,omitempty"`
}

// DeclaredLength returns the asserted length, defaulting to the number of payloads.
func (s *Scenario) DeclaredLength() int {
	if s.Length != nil {
		return *s.Length
	}
	return len(s.Payloads)
}

// Load reads and parses a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario %s: %w", path, err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes and validates a scenario document.
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks that every step and corruption is well-formed.
func (s *Scenario) Validate() error {
	seen := make(map[string]int, len(s.Payloads))
	for i, p := range s.Payloads {
		if first, ok := seen[p]; ok {
			return fmt.Errorf("%w: %w: %q at index %d and %d", ErrInvalidScenario, ErrDuplicatePayload, p, first, i)
		}
		seen[p] = i
	}

	for i, c := range s.Corrupt {
		for _, idx := range []*int{c.BreakPrev, c.BreakNext} {
			if idx != nil && (*idx < 0 || *idx >= len(s.Payloads)) {
				return fmt.Errorf("%w: corruption %d targets index %d outside %d payloads", ErrInvalidScenario, i, *idx, len(s.Payloads))
			}
		}
		if c.BreakPrev == nil && c.BreakNext == nil {
			return fmt.Errorf("%w: corruption %d is empty", ErrInvalidScenario, i)
		}
	}

	for i, st := range s.Steps {
		if err := st.validate(); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
	}
	return nil
}

func (st Step) validate() error {
	switch st.Op {
	case OpInsert, OpAppend, OpPosition:
		if st.Payload == "" {
			return fmt.Errorf("%w: %s needs a payload", ErrInvalidScenario, st.Op)
		}
	case OpNode, OpVerify, OpDestroy:
	case "":
		return fmt.Errorf("%w: missing op", ErrInvalidScenario)
	default:
		return fmt.Errorf("%w: unknown op %q", ErrInvalidScenario, st.Op)
	}
	return nil
}

// ParseStep parses the one-line form of a step:
//
//	insert <payload> <position>
//	append <payload>
//	position <payload>
//	node <position>
//	verify
//	destroy
func ParseStep(line string) (Step, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Step{}, fmt.Errorf("%w: empty step", ErrInvalidScenario)
	}

	st := Step{Op: Op(strings.ToLower(fields[0]))}
	args := fields[1:]

	want := 0
	switch st.Op {
	case OpInsert:
		want = 2
	case OpAppend, OpPosition, OpNode:
		want = 1
	}
	if len(args) != want {
		return Step{}, fmt.Errorf("%w: %s takes %d argument(s), got %d", ErrInvalidScenario, st.Op, want, len(args))
	}

	switch st.Op {
	case OpInsert:
		st.Payload = args[0]
		pos, err := strconv.Atoi(args[1])
		if err != nil {
			return Step{}, fmt.Errorf("%w: position %q is not a number", ErrInvalidScenario, args[1])
		}
		st.Position = pos
	case OpAppend, OpPosition:
		st.Payload = args[0]
	case OpNode:
		pos, err := strconv.Atoi(args[0])
		if err != nil {
			return Step{}, fmt.Errorf("%w: position %q is not a number", ErrInvalidScenario, args[0])
		}
		st.Position = pos
	}

	if err := st.validate(); err != nil {
		return Step{}, err
	}
	return st, nil
}
