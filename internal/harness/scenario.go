package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"
)

// Scenario is a named set of programs and the checks run over them.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Symbols declares the free parameter names usable in params.
	Symbols []string `yaml:"symbols,omitempty"`

	// Programs are built in order. A step may only use programs declared
	// before it.
	Programs []ProgramSpec `yaml:"programs"`

	// Checks run in order after every program is built.
	Checks []Check `yaml:"checks"`
}

// ProgramSpec declares one program.
type ProgramSpec struct {
	Name      string     `yaml:"name"`
	Operation string     `yaml:"operation,omitempty"` // Program and instruction name; defaults to Name
	Qubits    int        `yaml:"qubits,omitempty"`
	Clbits    int        `yaml:"clbits,omitempty"`
	Phase     string     `yaml:"phase,omitempty"` // Parameter expression; must evaluate to a number
	Label     string     `yaml:"label,omitempty"` // Applied when the program is converted to an instruction
	Steps     []StepSpec `yaml:"steps,omitempty"`
}

// OperationName returns the name the built program carries.
func (p ProgramSpec) OperationName() string {
	if p.Operation != "" {
		return p.Operation
	}
	return p.Name
}

// StepSpec appends one operation to a program.
type StepSpec struct {
	// Gate names a built-in gate. Exactly one of Gate and Use is set.
	Gate string `yaml:"gate,omitempty"`

	// Use names an earlier program, appended as its instruction.
	Use string `yaml:"use,omitempty"`

	// Inverse appends the deferred inverse of the operation instead.
	Inverse bool `yaml:"inverse,omitempty"`

	Params    []string       `yaml:"params,omitempty"`
	Qubits    []int          `yaml:"qubits"`
	Clbits    []int          `yaml:"clbits,omitempty"`
	Condition *ConditionSpec `yaml:"condition,omitempty"`
}

// ConditionSpec gates a step on classical bits.
type ConditionSpec struct {
	Clbits []int  `yaml:"clbits"`
	Value  uint64 `yaml:"value"`
}

// Check is a single expectation over the built programs.
type Check struct {
	// ID labels the check in traces. Defaults to "<type>_<index>".
	ID string `yaml:"id,omitempty"`

	// Type selects the check. See the Check* constants.
	Type string `yaml:"type"`

	// Program is the subject of the check.
	Program string `yaml:"program"`

	// Other is the program compared against, where the type needs one.
	Other string `yaml:"other,omitempty"`

	// Step selects the operation recorded at this index of Program (and of
	// Other) instead of the whole program's instruction.
	Step *int `yaml:"step,omitempty"`

	// Name is the expected operation or program name.
	Name string `yaml:"name,omitempty"`

	// Code is the expected error code for inverse_fails.
	Code string `yaml:"code,omitempty"`

	// Annotated requests the deferred inverse.
	Annotated bool `yaml:"annotated,omitempty"`

	// Gate converts programs with ToGate instead of ToInstruction.
	Gate bool `yaml:"gate,omitempty"`

	// Tolerances for soft_equal and not_soft_equal. Zero uses the defaults.
	RTol float64 `yaml:"rtol,omitempty"`
	ATol float64 `yaml:"atol,omitempty"`
}

// Check type constants.
const (
	CheckEqual                = "equal"
	CheckNotEqual             = "not_equal"
	CheckSoftEqual            = "soft_equal"
	CheckNotSoftEqual         = "not_soft_equal"
	CheckInverseEquals        = "inverse_equals"
	CheckReverseEquals        = "reverse_equals"
	CheckInverseFails         = "inverse_fails"
	CheckInverseName          = "inverse_name"
	CheckDoubleInverse        = "double_inverse"
	CheckDecomposeEquals      = "decompose_equals"
	CheckProgramInverseEquals = "program_inverse_equals"
)

// wholeProgram lists the check types that work on programs, not operations.
var wholeProgram = []string{CheckDecomposeEquals, CheckProgramInverseEquals}

// needsOther lists the check types that compare against a second program.
var needsOther = []string{
	CheckEqual, CheckNotEqual, CheckSoftEqual, CheckNotSoftEqual,
	CheckInverseEquals, CheckReverseEquals, CheckDecomposeEquals,
	CheckProgramInverseEquals,
}

// LoadScenario reads, schema-validates and parses a scenario YAML file.
// Returns an error if the file doesn't exist, fails the schema, contains
// unknown fields, or references undeclared programs.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(path, data)
}

// ParseScenario is LoadScenario for bytes already in memory. filename is
// only used in error positions.
func ParseScenario(filename string, data []byte) (*Scenario, error) {
	if err := ValidateSchema(filename, data); err != nil {
		return nil, err
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadScenarios loads every *.yaml and *.yml file in dir, sorted by path.
// A non-empty filter is a filepath.Match pattern on the base file name.
func LoadScenarios(dir, filter string) ([]*Scenario, error) {
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		paths = append(paths, matches...)
	}
	slices.Sort(paths)

	var scenarios []*Scenario
	seen := make(map[string]string)
	for _, path := range paths {
		if filter != "" {
			ok, err := filepath.Match(filter, filepath.Base(path))
			if err != nil {
				return nil, fmt.Errorf("invalid filter %q: %w", filter, err)
			}
			if !ok {
				continue
			}
		}
		s, err := LoadScenario(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if prev, dup := seen[s.Name]; dup {
			return nil, fmt.Errorf("%s: scenario %q already defined in %s", path, s.Name, prev)
		}
		seen[s.Name] = path
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks the cross references the schema cannot express.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Programs) == 0 {
		return fmt.Errorf("programs list is required and must be non-empty")
	}
	if len(s.Checks) == 0 {
		return fmt.Errorf("checks list is required and must be non-empty")
	}

	symbols := make(map[string]bool, len(s.Symbols))
	for i, name := range s.Symbols {
		if name == "pi" {
			return fmt.Errorf("symbols[%d]: pi is reserved", i)
		}
		if symbols[name] {
			return fmt.Errorf("symbols[%d]: duplicate symbol %q", i, name)
		}
		symbols[name] = true
	}

	declared := make(map[string]bool, len(s.Programs))
	for i, p := range s.Programs {
		if p.Name == "" {
			return fmt.Errorf("programs[%d]: name is required", i)
		}
		if declared[p.Name] {
			return fmt.Errorf("programs[%d]: duplicate program %q", i, p.Name)
		}
		for j, step := range p.Steps {
			if err := validateStep(step, declared); err != nil {
				return fmt.Errorf("programs[%d].steps[%d]: %w", i, j, err)
			}
		}
		declared[p.Name] = true
	}

	ids := make(map[string]bool, len(s.Checks))
	for i := range s.Checks {
		c := &s.Checks[i]
		if err := validateCheck(i, c, declared); err != nil {
			return err
		}
		if c.ID == "" {
			c.ID = fmt.Sprintf("%s_%d", c.Type, i)
		}
		if ids[c.ID] {
			return fmt.Errorf("checks[%d]: duplicate id %q", i, c.ID)
		}
		ids[c.ID] = true
	}
	return nil
}

func validateStep(step StepSpec, declared map[string]bool) error {
	switch {
	case step.Gate == "" && step.Use == "":
		return fmt.Errorf("one of gate or use is required")
	case step.Gate != "" && step.Use != "":
		return fmt.Errorf("gate and use are mutually exclusive")
	case step.Use != "" && !declared[step.Use]:
		return fmt.Errorf("use of undeclared program %q (programs may only use earlier programs)", step.Use)
	case step.Use != "" && len(step.Params) > 0:
		return fmt.Errorf("params are not allowed with use")
	}
	if step.Condition != nil && len(step.Condition.Clbits) == 0 {
		return fmt.Errorf("condition: clbits is required")
	}
	return nil
}

// validateCheck validates a single check based on its type.
func validateCheck(index int, c *Check, declared map[string]bool) error {
	if c.Type == "" {
		return fmt.Errorf("checks[%d]: type is required", index)
	}
	if !declared[c.Program] {
		return fmt.Errorf("checks[%d]: unknown program %q", index, c.Program)
	}

	switch c.Type {
	case CheckEqual, CheckNotEqual, CheckSoftEqual, CheckNotSoftEqual,
		CheckInverseEquals, CheckReverseEquals, CheckDecomposeEquals,
		CheckProgramInverseEquals, CheckDoubleInverse:
	case CheckInverseFails:
		if c.Code == "" {
			return fmt.Errorf("checks[%d]: code is required for inverse_fails", index)
		}
	case CheckInverseName:
		if c.Name == "" {
			return fmt.Errorf("checks[%d]: name is required for inverse_name", index)
		}
	default:
		return fmt.Errorf("checks[%d]: unknown check type %q", index, c.Type)
	}

	if slices.Contains(needsOther, c.Type) {
		if c.Other == "" {
			return fmt.Errorf("checks[%d]: other is required for %s", index, c.Type)
		}
		if !declared[c.Other] {
			return fmt.Errorf("checks[%d]: unknown program %q", index, c.Other)
		}
	}
	if c.Step != nil && slices.Contains(wholeProgram, c.Type) {
		return fmt.Errorf("checks[%d]: step is not allowed for %s", index, c.Type)
	}
	if c.RTol < 0 || c.ATol < 0 {
		return fmt.Errorf("checks[%d]: tolerances must be non-negative", index)
	}
	return nil
}
