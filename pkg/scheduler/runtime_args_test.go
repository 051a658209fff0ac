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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/secretflow/fuser/pkg/fusion"
)

func TestTensorArg(t *testing.T) {
	r := require.New(t)

	a := TensorArg{Shape: []int64{2, 3, 4}, Strides: ContiguousStrides([]int64{2, 3, 4})}
	r.Equal([]int64{12, 4, 1}, a.Strides)
	r.Equal(3, a.Rank())
	r.Equal(int64(24), a.Numel())
	r.True(a.IsContiguous())

	// transposed view
	r.False((&TensorArg{Shape: []int64{3, 2}, Strides: []int64{1, 3}}).IsContiguous())
	// extent-1 dims carry arbitrary strides
	r.True((&TensorArg{Shape: []int64{1, 4}, Strides: []int64{100, 1}}).IsContiguous())

	r.Equal(int64(1), (&TensorArg{}).Numel())
	r.Equal(int64(0), (&TensorArg{Shape: []int64{0, 5}, Strides: ContiguousStrides([]int64{0, 5})}).Numel())
}

func TestRuntimeArgsValidate(t *testing.T) {
	r := require.New(t)
	f := buildBiasAdd(t)

	r.NoError(contiguousArgs(f, []int64{4, 8}, []int64{8}).Validate(f))

	var missing *RuntimeArgs
	r.Error(missing.Validate(f))

	r.Error(contiguousArgs(f, []int64{4, 8}).Validate(f))
	r.Error(contiguousArgs(f, []int64{4, 8}, []int64{1, 8}).Validate(f))
	r.Error(contiguousArgs(f, []int64{4, -8}, []int64{8}).Validate(f))

	args := contiguousArgs(f, []int64{4, 8}, []int64{8})
	args.Inputs[1].Strides = nil
	r.Error(args.Validate(f))

	args = contiguousArgs(f, []int64{4, 8}, []int64{8})
	args.Inputs[0].DType = fusion.DTypeHalf
	r.ErrorContains(args.Validate(f), "dtype")

	for _, alignment := range []int{0, -16, 12} {
		args = contiguousArgs(f, []int64{4, 8}, []int64{8})
		args.Inputs[1].Alignment = alignment
		r.ErrorContains(args.Validate(f), "power of two")
	}
}
