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

package scheduler

import (
	"fmt"

	"github.com/secretflow/fuser/pkg/fusion"
)

// DefaultAlignment is the byte alignment assumed for device buffers.
const DefaultAlignment = 16

// TensorArg is the concrete tensor bound to one fusion input.
type TensorArg struct {
	Shape   []int64
	Strides []int64
	DType   fusion.DType
	// byte alignment of the data pointer
	Alignment int
}

func (a *TensorArg) Rank() int {
	return len(a.Shape)
}

func (a *TensorArg) Numel() int64 {
	n := int64(1)
	for _, d := range a.Shape {
		n *= d
	}
	return n
}

// IsContiguous reports row-major contiguity. Extent-1 dims may carry any
// stride.
func (a *TensorArg) IsContiguous() bool {
	expected := int64(1)
	for i := len(a.Shape) - 1; i >= 0; i-- {
		if a.Shape[i] != 1 && a.Strides[i] != expected {
			return false
		}
		expected *= a.Shape[i]
	}
	return true
}

// RuntimeArgs holds one TensorArg per fusion input, in input order.
type RuntimeArgs struct {
	Inputs []TensorArg
}

// ContiguousStrides returns row-major strides of shape
func ContiguousStrides(shape []int64) []int64 {
	strides := make([]int64, len(shape))
	stride := int64(1)
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = stride
		if shape[i] > 0 {
			stride *= shape[i]
		}
	}
	return strides
}

// Validate checks the arguments against the inputs of f.
func (args *RuntimeArgs) Validate(f *fusion.Fusion) error {
	if args == nil {
		return fmt.Errorf("runtime args are missing")
	}
	inputs := f.Inputs()
	if len(args.Inputs) != len(inputs) {
		return fmt.Errorf("fusion %s has %d inputs, got %d runtime args", f.Name, len(inputs), len(args.Inputs))
	}
	for i, in := range inputs {
		arg := &args.Inputs[i]
		if arg.Rank() != in.Rank {
			return fmt.Errorf("arg %d for %s: rank %d, expected %d", i, in.ToBriefString(), arg.Rank(), in.Rank)
		}
		if len(arg.Strides) != len(arg.Shape) {
			return fmt.Errorf("arg %d for %s: %d strides for rank %d", i, in.ToBriefString(), len(arg.Strides), arg.Rank())
		}
		for _, d := range arg.Shape {
			if d < 0 {
				return fmt.Errorf("arg %d for %s: negative extent in shape %v", i, in.ToBriefString(), arg.Shape)
			}
		}
		if arg.DType != in.DType {
			return fmt.Errorf("arg %d for %s: dtype %s, expected %s", i, in.ToBriefString(), arg.DType, in.DType)
		}
		if arg.Alignment <= 0 || arg.Alignment&(arg.Alignment-1) != 0 {
			return fmt.Errorf("arg %d for %s: alignment %d is not a power of two", i, in.ToBriefString(), arg.Alignment)
		}
	}
	return nil
}
