package harness

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	cueyaml "cuelang.org/go/encoding/yaml"
)

//go:embed schema.cue
var schemaSource string

// SchemaError reports a scenario that does not satisfy the scenario schema.
type SchemaError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *SchemaError) Error() string {
	field := e.Field
	if field == "" {
		field = "scenario"
	}
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			field, e.Message)
	}
	return fmt.Sprintf("%s: %s", field, e.Message)
}

// ValidateSchema unifies the YAML document with the #Scenario definition.
// All violations are returned joined; each is a *SchemaError.
func ValidateSchema(filename string, data []byte) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile scenario schema: %w", err)
	}

	file, err := cueyaml.Extract(filename, data)
	if err != nil {
		return &SchemaError{Message: fmt.Sprintf("malformed YAML: %v", err)}
	}
	value := ctx.BuildFile(file)
	if err := value.Err(); err != nil {
		return convertCUEErrors(filename, err)
	}

	unified := schema.LookupPath(cue.ParsePath("#Scenario")).Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return convertCUEErrors(filename, err)
	}
	return nil
}

// convertCUEErrors flattens a CUE error list, preferring positions inside
// the scenario file over positions inside the schema.
func convertCUEErrors(filename string, err error) error {
	var out []error
	for _, e := range cueerrors.Errors(err) {
		format, args := e.Msg()
		pos := e.Position()
		for _, p := range e.InputPositions() {
			if p.Filename() == filename {
				pos = p
				break
			}
		}
		out = append(out, &SchemaError{
			Field:   strings.Join(e.Path(), "."),
			Message: fmt.Sprintf(format, args...),
			Pos:     pos,
		})
	}
	if len(out) == 0 {
		return &SchemaError{Message: err.Error()}
	}
	return errors.Join(out...)
}
