package harness

import (
	_ "embed"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cueyaml "cuelang.org/go/encoding/yaml"
)

//go:embed schema.cue
var schemaCUE string

var (
	schemaOnce sync.Once
	schemaCtx  *cue.Context
	scenarioV  cue.Value
	schemaErr  error

	// schemaMu guards schemaCtx: a cue.Context is not safe for concurrent use.
	schemaMu sync.Mutex
)

// scenarioSchema compiles the embedded schema once and returns the
// #Scenario definition together with the context it belongs to.
func scenarioSchema() (*cue.Context, cue.Value, error) {
	schemaOnce.Do(func() {
		schemaCtx = cuecontext.New()
		v := schemaCtx.CompileString(schemaCUE, cue.Filename("schema.cue"))
		if err := v.Err(); err != nil {
			schemaErr = fmt.Errorf("compile scenario schema: %w", err)
			return
		}
		scenarioV = v.LookupPath(cue.ParsePath("#Scenario"))
		if err := scenarioV.Err(); err != nil {
			schemaErr = fmt.Errorf("lookup #Scenario: %w", err)
		}
	})
	return schemaCtx, scenarioV, schemaErr
}

// ValidateSchema checks a scenario document against the embedded CUE
// schema. filename is used in error positions only.
func ValidateSchema(filename string, data []byte) error {
	ctx, schema, err := scenarioSchema()
	if err != nil {
		return err
	}

	schemaMu.Lock()
	defer schemaMu.Unlock()

	file, err := cueyaml.Extract(filename, data)
	if err != nil {
		return fmt.Errorf("read YAML: %w", err)
	}
	doc := ctx.BuildFile(file)
	if err := doc.Err(); err != nil {
		return fmt.Errorf("build document: %w", err)
	}

	if err := schema.Unify(doc).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("schema: %s", cueerrors.Details(err, nil))
	}
	return nil
}
