// Package parser parses workload replay YAML documents, grounded on the
// teacher's pkg/scenario/parser: the same variable-substitution and
// override-application shape, repurposed from fault-scenario parsing to
// replay-workload parsing.
package parser

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/neodyma/laik/pkg/workload"
)

// Parser parses workload YAML with ${VAR}/$VAR substitution.
type Parser struct {
	Variables map[string]string
}

// New creates a parser with optional variables for substitution.
func New(variables map[string]string) *Parser {
	if variables == nil {
		variables = make(map[string]string)
	}
	return &Parser{Variables: variables}
}

// ParseFile parses a workload from a YAML file.
func (p *Parser) ParseFile(path string) (*workload.Workload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read workload file: %w", err)
	}
	return p.Parse(data)
}

// Parse parses a workload from YAML bytes.
func (p *Parser) Parse(data []byte) (*workload.Workload, error) {
	substituted := p.substituteVariables(string(data))

	var w workload.Workload
	if err := yaml.Unmarshal([]byte(substituted), &w); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := p.validateRequiredFields(&w); err != nil {
		return nil, err
	}

	return &w, nil
}

var varPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// substituteVariables replaces ${VAR} and $VAR with parser variables, then
// environment variables, leaving unmatched references untouched.
func (p *Parser) substituteVariables(content string) string {
	return varPattern.ReplaceAllStringFunc(content, func(match string) string {
		var name string
		if strings.HasPrefix(match, "${") {
			name = match[2 : len(match)-1]
		} else {
			name = match[1:]
		}

		if val, ok := p.Variables[name]; ok {
			return val
		}
		if val := os.Getenv(name); val != "" {
			return val
		}
		return match
	})
}

// SetVariable sets a variable for substitution.
func (p *Parser) SetVariable(key, value string) {
	p.Variables[key] = value
}

// SetVariables sets multiple variables for substitution.
func (p *Parser) SetVariables(vars map[string]string) {
	for k, v := range vars {
		p.Variables[k] = v
	}
}

// ParseOverrides parses CLI override strings (--set key=value) into a map.
func ParseOverrides(overrides []string) (map[string]string, error) {
	result := make(map[string]string)
	for _, o := range overrides {
		parts := strings.SplitN(o, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid override format: %s (expected key=value)", o)
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if key == "" {
			return nil, fmt.Errorf("empty key in override: %s", o)
		}
		result[key] = value
	}
	return result, nil
}

// ApplyOverrides applies CLI overrides to a parsed workload. Supported keys:
// "group.size" and "spaces[<name>].extent[<axis>]".
func ApplyOverrides(w *workload.Workload, overrides map[string]string) error {
	for key, value := range overrides {
		switch {
		case key == "group.size":
			n, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("invalid group.size override: %w", err)
			}
			w.Spec.Group.Size = n

		case strings.HasPrefix(key, "spaces["):
			if err := applySpaceExtentOverride(w, key, value); err != nil {
				return err
			}

		default:
			return fmt.Errorf("unsupported override key: %s", key)
		}
	}
	return nil
}

// applySpaceExtentOverride handles "spaces[<name>].extent[<axis>]=<value>".
func applySpaceExtentOverride(w *workload.Workload, key, value string) error {
	name, axis, err := parseSpaceExtentKey(key)
	if err != nil {
		return err
	}
	n, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid extent override value %q: %w", value, err)
	}
	for i := range w.Spec.Spaces {
		if w.Spec.Spaces[i].Name == name {
			w.Spec.Spaces[i].Extent[axis] = n
			return nil
		}
	}
	return fmt.Errorf("override references unknown space %q", name)
}

func parseSpaceExtentKey(key string) (name string, axis int, err error) {
	const prefix = "spaces["
	rest := key[len(prefix):]
	nameEnd := strings.Index(rest, "]")
	if nameEnd < 0 {
		return "", 0, fmt.Errorf("malformed override key: %s", key)
	}
	name = rest[:nameEnd]
	rest = rest[nameEnd:]
	const mid = "].extent["
	if !strings.HasPrefix(rest, mid) || !strings.HasSuffix(rest, "]") {
		return "", 0, fmt.Errorf("malformed override key: %s", key)
	}
	axisStr := rest[len(mid) : len(rest)-1]
	axis, err = strconv.Atoi(axisStr)
	if err != nil {
		return "", 0, fmt.Errorf("malformed override axis in key %q: %w", key, err)
	}
	if axis < 0 || axis > 2 {
		return "", 0, fmt.Errorf("override axis %d out of range 0..2", axis)
	}
	return name, axis, nil
}

func (p *Parser) validateRequiredFields(w *workload.Workload) error {
	if w.APIVersion == "" {
		return fmt.Errorf("apiVersion is required")
	}
	if w.Kind == "" {
		return fmt.Errorf("kind is required")
	}
	if w.Metadata.Name == "" {
		return fmt.Errorf("metadata.name is required")
	}
	if w.Spec.Group.Size <= 0 {
		return fmt.Errorf("spec.group.size must be positive")
	}
	if len(w.Spec.Spaces) == 0 {
		return fmt.Errorf("spec.spaces is required and must have at least one space")
	}
	if len(w.Spec.Partitionings) == 0 {
		return fmt.Errorf("spec.partitionings is required and must have at least one partitioning")
	}
	if len(w.Spec.Phases) == 0 {
		return fmt.Errorf("spec.phases is required and must have at least one phase")
	}

	for i, sp := range w.Spec.Spaces {
		if sp.Name == "" {
			return fmt.Errorf("spec.spaces[%d].name is required", i)
		}
		if sp.Dims < 1 || sp.Dims > 3 {
			return fmt.Errorf("spec.spaces[%d].dims must be 1..3", i)
		}
	}

	for i, pt := range w.Spec.Partitionings {
		if pt.Name == "" {
			return fmt.Errorf("spec.partitionings[%d].name is required", i)
		}
		if pt.Space == "" {
			return fmt.Errorf("spec.partitionings[%d].space is required", i)
		}
		if pt.Partitioner.Type == "" {
			return fmt.Errorf("spec.partitionings[%d].partitioner.type is required", i)
		}
	}

	for i, ph := range w.Spec.Phases {
		if ph.From == "" {
			return fmt.Errorf("spec.phases[%d].from is required", i)
		}
		if ph.To == "" {
			return fmt.Errorf("spec.phases[%d].to is required", i)
		}
		if ph.Flow == "" {
			return fmt.Errorf("spec.phases[%d].flow is required", i)
		}
	}

	return nil
}
