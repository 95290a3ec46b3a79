// Package validation checks caller input against per-operation JSON Schemas
// and coerces the loose string forms into the types the contracts expect.
// Every wrapper validates before it touches the network.
package validation

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	sellout "github.com/sellout-xyz/sellout/go"
)

//go:embed schemas/*.json
var schemaFS embed.FS

const (
	definitionsFile = "definitions.json"
	rootField       = "(root)"
)

var schemas = mustCompile()

func mustCompile() map[string]*gojsonschema.Schema {
	compiled, err := compile(schemaFS)
	if err != nil {
		panic(err)
	}
	return compiled
}

// compile builds one schema per operation. Operation names are
// "<file>.<key>", e.g. "show.proposeShow". Shared definitions are injected
// into each schema so local $refs resolve.
func compile(fsys fs.FS) (map[string]*gojsonschema.Schema, error) {
	var shared struct {
		Definitions map[string]interface{} `json:"definitions"`
	}
	raw, err := fs.ReadFile(fsys, path.Join("schemas", definitionsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read schema definitions: %w", err)
	}
	if err := json.Unmarshal(raw, &shared); err != nil {
		return nil, fmt.Errorf("failed to decode schema definitions: %w", err)
	}

	entries, err := fs.ReadDir(fsys, "schemas")
	if err != nil {
		return nil, err
	}

	out := make(map[string]*gojsonschema.Schema)
	for _, entry := range entries {
		if entry.IsDir() || entry.Name() == definitionsFile {
			continue
		}
		group := strings.TrimSuffix(entry.Name(), ".json")

		raw, err := fs.ReadFile(fsys, path.Join("schemas", entry.Name()))
		if err != nil {
			return nil, err
		}
		var operations map[string]map[string]interface{}
		if err := json.Unmarshal(raw, &operations); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", entry.Name(), err)
		}

		for name, schema := range operations {
			schema["definitions"] = shared.Definitions
			compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema))
			if err != nil {
				return nil, fmt.Errorf("invalid schema %s.%s: %w", group, name, err)
			}
			out[group+"."+name] = compiled
		}
	}
	return out, nil
}

// Operations lists every operation with a schema
func Operations() []string {
	names := make([]string, 0, len(schemas))
	for name := range schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks input, typically a JSON-tagged input struct, against the
// schema of operation
func Validate(operation string, input interface{}) error {
	return validate(operation, gojsonschema.NewGoLoader(input))
}

// ValidateJSON checks a raw JSON document against the schema of operation
func ValidateJSON(operation string, raw []byte) error {
	if len(raw) == 0 {
		return sellout.NewValidationError(operation, "", "empty body")
	}
	return validate(operation, gojsonschema.NewBytesLoader(raw))
}

func validate(operation string, document gojsonschema.JSONLoader) error {
	schema, ok := schemas[operation]
	if !ok {
		return fmt.Errorf("no schema for operation %s", operation)
	}

	result, err := schema.Validate(document)
	if err != nil {
		return sellout.NewValidationError(operation, "", err.Error())
	}
	if result.Valid() {
		return nil
	}

	errs := result.Errors()
	sort.SliceStable(errs, func(i, j int) bool {
		return fieldPath(errs[i]) < fieldPath(errs[j])
	})
	first := errs[0]
	return sellout.NewValidationError(operation, fieldPath(first), first.Description())
}

// fieldPath returns the dotted path of the offending value. Required errors
// are reported against the missing property rather than its parent.
func fieldPath(e gojsonschema.ResultError) string {
	field := e.Field()
	if field == rootField {
		field = ""
	}
	if e.Type() == "required" {
		if property, ok := e.Details()["property"].(string); ok {
			if field == "" {
				return property
			}
			return field + "." + property
		}
	}
	return field
}
