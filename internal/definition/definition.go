// Package definition loads schedules from HCL files of the form
//
//	task "Square1" {
//	  kind   = "square"
//	  inputs = { input_square = [2] }
//	}
//
//	task "Sum" {
//	  kind       = "sum"
//	  depends_on = ["Square1", "Square2"]
//	}
package definition

import (
	"fmt"
	"math/big"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/maxkimambo/dagsched/internal/errors"
	"github.com/maxkimambo/dagsched/internal/logger"
	"github.com/maxkimambo/dagsched/internal/schedule"
)

// Definition is a decoded schedule file
type Definition struct {
	Path  string
	Tasks []TaskSpec
}

// TaskSpec describes one task block
type TaskSpec struct {
	ID        string
	Kind      string
	Inputs    schedule.Params
	DependsOn []string
}

// hclFile is the top-level structure of a definition file for decoding
type hclFile struct {
	Tasks  []*hclTask `hcl:"task,block"`
	Remain hcl.Body   `hcl:",remain"`
}

type hclTask struct {
	ID        string    `hcl:"id,label"`
	Kind      string    `hcl:"kind"`
	Inputs    cty.Value `hcl:"inputs,optional"`
	DependsOn []string  `hcl:"depends_on,optional"`
}

// Load reads and decodes the definition file at path
func Load(path string) (*Definition, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, errors.NewDefinitionParseError(path, diags)
	}
	return decode(path, file)
}

// Parse decodes a definition from src. filename is only used in messages.
func Parse(src []byte, filename string) (*Definition, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, errors.NewDefinitionParseError(filename, diags)
	}
	return decode(filename, file)
}

func decode(path string, file *hcl.File) (*Definition, error) {
	var root hclFile
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return nil, errors.NewDefinitionParseError(path, diags)
	}

	def := &Definition{Path: path}
	for _, block := range root.Tasks {
		inputs, err := toParams(block.Inputs)
		if err != nil {
			return nil, errors.NewDefinitionParseError(path,
				fmt.Errorf("task %q inputs: %w", block.ID, err))
		}
		def.Tasks = append(def.Tasks, TaskSpec{
			ID:        block.ID,
			Kind:      block.Kind,
			Inputs:    inputs,
			DependsOn: block.DependsOn,
		})
	}

	logger.Op.WithFields(map[string]interface{}{
		"file":  path,
		"tasks": len(def.Tasks),
	}).Debug("Loaded schedule definition")

	return def, nil
}

// toParams converts an inputs object into parameters. Lists contribute one
// value per element, anything else a single value.
func toParams(v cty.Value) (schedule.Params, error) {
	params := make(schedule.Params)
	if v.Type() == cty.NilType || v.IsNull() {
		return params, nil
	}
	if !v.IsWhollyKnown() {
		return nil, fmt.Errorf("inputs must be known values")
	}
	if !v.Type().IsObjectType() && !v.Type().IsMapType() {
		return nil, fmt.Errorf("inputs must be an object, got %s", v.Type().FriendlyName())
	}

	for it := v.ElementIterator(); it.Next(); {
		key, val := it.Element()
		name := key.AsString()

		if val.Type().IsListType() || val.Type().IsTupleType() || val.Type().IsSetType() {
			for elems := val.ElementIterator(); elems.Next(); {
				_, elem := elems.Element()
				native, err := toNative(elem)
				if err != nil {
					return nil, fmt.Errorf("%s: %w", name, err)
				}
				params[name] = append(params[name], native)
			}
			if _, ok := params[name]; !ok {
				params[name] = []any{}
			}
			continue
		}

		native, err := toNative(val)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		params[name] = append(params[name], native)
	}
	return params, nil
}

// toNative converts a primitive value. Integral numbers become int, other
// numbers float64.
func toNative(v cty.Value) (any, error) {
	if v.IsNull() {
		return nil, nil
	}

	switch v.Type() {
	case cty.String:
		return v.AsString(), nil
	case cty.Bool:
		return v.True(), nil
	case cty.Number:
		return number(v.AsBigFloat()), nil
	default:
		return nil, fmt.Errorf("unsupported value of type %s", v.Type().FriendlyName())
	}
}

func number(bf *big.Float) any {
	if bf.IsInt() {
		if i, acc := bf.Int64(); acc == big.Exact {
			return int(i)
		}
	}
	f, _ := bf.Float64()
	return f
}
