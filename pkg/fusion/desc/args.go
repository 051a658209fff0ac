// Copyright 2025 Ant Group Co., Ltd.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package desc

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/secretflow/fuser/pkg/fusion"
	"github.com/secretflow/fuser/pkg/scheduler"
)

// TensorArgDesc describes the runtime tensor bound to a fusion input.
// Missing strides default to contiguous, missing dtype to the input's dtype.
type TensorArgDesc struct {
	Shape     []int64 `yaml:"shape" json:"shape"`
	Strides   []int64 `yaml:"strides,omitempty" json:"strides,omitempty"`
	DType     string  `yaml:"dtype,omitempty" json:"dtype,omitempty"`
	Alignment int     `yaml:"alignment,omitempty" json:"alignment,omitempty"`
}

type ArgsDesc struct {
	Inputs []TensorArgDesc `yaml:"inputs" json:"inputs"`
}

// LoadArgs reads runtime arguments from a yaml or json file
func LoadArgs(path string) (*ArgsDesc, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read runtime args %s", path)
	}
	a := &ArgsDesc{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(content, a)
	case ".json":
		err = json.Unmarshal(content, a)
	default:
		return nil, fmt.Errorf("unsupported runtime args format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, errors.Wrapf(err, "unmarshal runtime args %s", path)
	}
	return a, nil
}

// RuntimeArgs resolves defaults against the inputs of f.
func (a *ArgsDesc) RuntimeArgs(f *fusion.Fusion) (*scheduler.RuntimeArgs, error) {
	inputs := f.Inputs()
	args := &scheduler.RuntimeArgs{}
	for i, in := range a.Inputs {
		arg := scheduler.TensorArg{
			Shape:     in.Shape,
			Strides:   in.Strides,
			Alignment: in.Alignment,
		}
		if arg.Strides == nil {
			arg.Strides = scheduler.ContiguousStrides(in.Shape)
		}
		if arg.Alignment == 0 {
			arg.Alignment = scheduler.DefaultAlignment
		}
		switch {
		case in.DType != "":
			dt, err := fusion.ParseDType(in.DType)
			if err != nil {
				return nil, errors.Wrapf(err, "runtime arg %d", i)
			}
			arg.DType = dt
		case i < len(inputs):
			arg.DType = inputs[i].DType
		}
		args.Inputs = append(args.Inputs, arg)
	}
	return args, nil
}
