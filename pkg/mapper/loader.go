package mapper

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var definitionSchema string

const definitionSchemaURL = "https://opentrustprotocol.local/mapper/definition.schema.json"

var (
	compileOnce      sync.Once
	compiledSchema   *jsonschema.Schema
	compileSchemaErr error
)

func schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020
		if err := c.AddResource(definitionSchemaURL, strings.NewReader(definitionSchema)); err != nil {
			compileSchemaErr = fmt.Errorf("mapper schema load failed: %w", err)
			return
		}
		compiledSchema, compileSchemaErr = c.Compile(definitionSchemaURL)
	})
	return compiledSchema, compileSchemaErr
}

// Definition is the flat, file-level description of one mapper.
type Definition struct {
	ID   string `json:"id" yaml:"id"`
	Type Type   `json:"type" yaml:"type"`

	FalsityPoint       float64 `json:"falsity_point,omitempty" yaml:"falsity_point,omitempty"`
	IndeterminacyPoint float64 `json:"indeterminacy_point,omitempty" yaml:"indeterminacy_point,omitempty"`
	TruthPoint         float64 `json:"truth_point,omitempty" yaml:"truth_point,omitempty"`
	ClampToRange       bool    `json:"clamp_to_range,omitempty" yaml:"clamp_to_range,omitempty"`

	Mappings        map[string]Triple `json:"mappings,omitempty" yaml:"mappings,omitempty"`
	DefaultJudgment *Triple           `json:"default_judgment,omitempty" yaml:"default_judgment,omitempty"`

	TrueMap  *Triple `json:"true_map,omitempty" yaml:"true_map,omitempty"`
	FalseMap *Triple `json:"false_map,omitempty" yaml:"false_map,omitempty"`
}

// Build constructs the mapper a definition describes.
func (d Definition) Build(opts ...Option) (Mapper, error) {
	switch d.Type {
	case TypeNumerical:
		return NewNumerical(d.ID, NumericalConfig{
			FalsityPoint:       d.FalsityPoint,
			IndeterminacyPoint: d.IndeterminacyPoint,
			TruthPoint:         d.TruthPoint,
			ClampToRange:       d.ClampToRange,
		}, opts...)
	case TypeCategorical:
		return NewCategorical(d.ID, CategoricalConfig{
			Mappings:        d.Mappings,
			DefaultJudgment: d.DefaultJudgment,
		}, opts...)
	case TypeBoolean:
		if d.TrueMap == nil || d.FalseMap == nil {
			return nil, configErr(d.ID, "true_map and false_map are required")
		}
		return NewBoolean(d.ID, BooleanConfig{TrueMap: *d.TrueMap, FalseMap: *d.FalseMap}, opts...)
	default:
		return nil, configErr(d.ID, "unknown mapper type %q", d.Type)
	}
}

type definitionFile struct {
	Mappers []map[string]any `yaml:"mappers"`
}

// LoadDefinitions reads a YAML document with a top-level "mappers" list,
// checks every entry against the definition schema and builds the mappers.
func LoadDefinitions(r io.Reader, opts ...Option) ([]Mapper, error) {
	sch, err := schema()
	if err != nil {
		return nil, err
	}

	var file definitionFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: parse mapper definitions: %v", ErrConfig, err)
	}

	mappers := make([]Mapper, 0, len(file.Mappers))
	seen := make(map[string]bool, len(file.Mappers))
	for idx, raw := range file.Mappers {
		// Round-trip through JSON so the validator sees JSON-typed values.
		encoded, err := json.Marshal(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: mappers[%d]: %v", ErrConfig, idx, err)
		}
		var doc any
		if err := json.Unmarshal(encoded, &doc); err != nil {
			return nil, fmt.Errorf("%w: mappers[%d]: %v", ErrConfig, idx, err)
		}
		if err := sch.Validate(doc); err != nil {
			return nil, fmt.Errorf("%w: mappers[%d]: %v", ErrConfig, idx, err)
		}

		var def Definition
		if err := json.Unmarshal(encoded, &def); err != nil {
			return nil, fmt.Errorf("%w: mappers[%d]: %v", ErrConfig, idx, err)
		}
		if seen[def.ID] {
			return nil, fmt.Errorf("%w: mappers[%d]: %s", ErrDuplicateMapper, idx, def.ID)
		}
		seen[def.ID] = true

		m, err := def.Build(opts...)
		if err != nil {
			return nil, err
		}
		mappers = append(mappers, m)
	}
	return mappers, nil
}

// LoadFile reads mapper definitions from path.
func LoadFile(path string, opts ...Option) ([]Mapper, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open mapper definitions: %w", err)
	}
	defer func() { _ = f.Close() }()
	return LoadDefinitions(f, opts...)
}

// LoadRegistry loads path into a new registry.
func LoadRegistry(path string, opts ...Option) (*Registry, error) {
	mappers, err := LoadFile(path, opts...)
	if err != nil {
		return nil, err
	}
	reg := NewRegistry()
	for _, m := range mappers {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
