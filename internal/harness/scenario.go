package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Scenario is an executable sequence of tree operations with expectations.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Steps run in order against one fresh tree.
	Steps []Step `yaml:"steps"`

	// Assertions are evaluated against the final tree.
	Assertions []Assertion `yaml:"assertions,omitempty"`

	// Golden enables comparison of the final tree with
	// testdata/golden/<name>.golden.
	Golden bool `yaml:"golden,omitempty"`
}

// Operation names used in Step.Op.
const (
	OpCreateRoot  = "create_root"
	OpCreateChild = "create_child"
	OpRemove      = "remove"
	OpUpdate      = "update"
	OpCopy        = "copy"
	OpGetTree     = "get_tree"
)

// Step is one engine call.
type Step struct {
	Op     string  `yaml:"op"`
	Value  *int64  `yaml:"value,omitempty"`
	Node   *Ref    `yaml:"node,omitempty"`
	Parent *Ref    `yaml:"parent,omitempty"`
	Source *Ref    `yaml:"source,omitempty"`
	Target *Ref    `yaml:"target,omitempty"`
	As     string  `yaml:"as,omitempty"`
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect describes the outcome of a step. With no Error the step must
// succeed.
type Expect struct {
	// Error is the expected error kind: root_exists, node_not_found,
	// cycle or tree_empty.
	Error string `yaml:"error,omitempty"`

	// Node is matched against the node the step returns.
	Node *NodeExpect `yaml:"node,omitempty"`
}

// NodeExpect is a subset match on node fields; nil fields are not checked.
type NodeExpect struct {
	Value  *int64 `yaml:"value,omitempty"`
	Sum    *int64 `yaml:"sum,omitempty"`
	Level  *int   `yaml:"level,omitempty"`
	Parent *Ref   `yaml:"parent,omitempty"`
}

// Assertion validates the final tree.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Node is the node under test (node, absent, same_shape).
	Node *Ref `yaml:"node,omitempty"`

	// Other is the second subtree for same_shape.
	Other *Ref `yaml:"other,omitempty"`

	// Count is the expected tree size for count.
	Count *int `yaml:"count,omitempty"`

	// Expect holds the expected fields for node.
	Expect *NodeExpect `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertNode       = "node"
	AssertAbsent     = "absent"
	AssertCount      = "count"
	AssertInvariants = "invariants"
	AssertSameShape  = "same_shape"
)

// Ref refers to a node either by an alias bound with "as" or by a literal
// id. It accepts both YAML strings and integers.
type Ref string

// UnmarshalYAML keeps the raw scalar text so "3" and 3 both become Ref("3").
func (r *Ref) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: node reference must be an alias or an id", n.Line)
	}
	*r = Ref(n.Value)
	return nil
}

// resolve returns the id r refers to: a bound alias first, then a literal id.
func (r Ref) resolve(aliases map[string]int64) (int64, error) {
	if id, ok := aliases[string(r)]; ok {
		return id, nil
	}
	id, err := strconv.ParseInt(string(r), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("unknown alias %q", string(r))
	}
	return id, nil
}

// LoadScenario reads, parses and validates a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos) or fails the CUE schema.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(filepath.Base(path), data)
}

// ParseScenario parses and validates scenario YAML. filename is only used
// in error messages.
func ParseScenario(filename string, data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := ValidateSchema(filename, data); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	if err := validateAliases(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateAliases checks what the schema cannot: an alias is bound at most
// once and only by a step that produces a node.
func validateAliases(s *Scenario) error {
	bound := map[string]int{}
	for i, step := range s.Steps {
		if step.As == "" {
			continue
		}
		if step.Op == OpRemove {
			return fmt.Errorf("steps[%d]: remove does not produce a node to bind as %q", i, step.As)
		}
		if prev, ok := bound[step.As]; ok {
			return fmt.Errorf("steps[%d]: alias %q already bound by steps[%d]", i, step.As, prev)
		}
		bound[step.As] = i
	}
	return nil
}
