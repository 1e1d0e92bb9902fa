package karabiner

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/roach88/omnikeys/internal/ir"
)

//go:embed schema/karabiner.schema.json
var schemaData []byte

const schemaURL = "karabiner.schema.json"

// Document kinds accepted by Validate.
const (
	KindRule  = "rule"
	KindAsset = "asset"
)

var (
	schemaOnce sync.Once
	schemas    map[string]*jsonschema.Schema
	schemaErr  error
)

func loadSchemas() {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaData)); err != nil {
		schemaErr = fmt.Errorf("add schema resource: %w", err)
		return
	}
	schemas = make(map[string]*jsonschema.Schema)
	for _, kind := range []string{KindRule, KindAsset} {
		s, err := compiler.Compile(schemaURL + "#/definitions/" + kind)
		if err != nil {
			schemaErr = fmt.Errorf("compile %s schema: %w", kind, err)
			return
		}
		schemas[kind] = s
	}
}

// Validate checks a JSON document of the given kind against the embedded
// schema.
func Validate(data []byte, kind string) error {
	schemaOnce.Do(loadSchemas)
	if schemaErr != nil {
		return schemaErr
	}
	schema, ok := schemas[kind]
	if !ok {
		return fmt.Errorf("unknown document kind %q", kind)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var instance any
	if err := dec.Decode(&instance); err != nil {
		return fmt.Errorf("decode %s: %w", kind, err)
	}
	if err := schema.Validate(instance); err != nil {
		return fmt.Errorf("%s does not match schema: %w", kind, err)
	}
	return nil
}

// Render emits set as a rule, or as an asset titled title when asset is true,
// and returns the validated JSON.
func Render(set *ir.ProductionSet, title string, asset bool) ([]byte, error) {
	var (
		doc  any
		kind = KindRule
		err  error
	)
	if asset {
		kind = KindAsset
		doc, err = EmitAsset(title, set)
	} else {
		doc, err = Emit(set)
	}
	if err != nil {
		return nil, err
	}

	data, err := Marshal(doc)
	if err != nil {
		return nil, err
	}
	if err := Validate(data, kind); err != nil {
		return nil, err
	}
	return data, nil
}
