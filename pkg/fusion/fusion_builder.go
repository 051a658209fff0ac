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

package fusion

import (
	"fmt"

	"github.com/google/uuid"
)

// FusionBuilder builds a fusion expression by expression. Errors are
// recorded and reported once by Build, so calls can be chained.
type FusionBuilder struct {
	name       string
	vals       []*Val
	exprs      []*Expr
	inputs     []*Val
	outputs    []*Val
	resharding bool

	valNum  int
	exprNum int
	err     error
}

// NewFusionBuilder returns a fusion builder instance
func NewFusionBuilder(name string) *FusionBuilder {
	return &FusionBuilder{name: name}
}

func (b *FusionBuilder) Err() error {
	return b.err
}

func (b *FusionBuilder) setErr(format string, args ...interface{}) {
	if b.err == nil {
		b.err = fmt.Errorf(format, args...)
	}
}

// AddVal adds a val not yet produced by anything
func (b *FusionBuilder) AddVal(name string, dtype DType, rank int) *Val {
	v := NewVal(b.valNum, name, dtype, rank)
	b.valNum++
	b.vals = append(b.vals, v)
	return v
}

// AddInput adds a fusion input
func (b *FusionBuilder) AddInput(name string, dtype DType, rank int) *Val {
	if rank < 0 {
		b.setErr("AddInput: negative rank %d for %s", rank, name)
	}
	v := b.AddVal(name, dtype, rank)
	v.isFusionInput = true
	b.inputs = append(b.inputs, v)
	return v
}

// AddExpr adds an expression producing outputs from inputs. Outputs must
// have been created by AddVal and not be produced by another expression.
func (b *FusionBuilder) AddExpr(kind OpKind, name string, inputs []*Val, outputs []*Val, attrs map[string]*Attribute) *Expr {
	for _, in := range inputs {
		if in == nil {
			b.setErr("AddExpr: nil input for %s", name)
			return nil
		}
	}
	for _, out := range outputs {
		if out == nil {
			b.setErr("AddExpr: nil output for %s", name)
			return nil
		}
		if out.definition != nil || out.isFusionInput {
			b.setErr("AddExpr: %s is already defined", out.ToBriefString())
			return nil
		}
	}
	if name == "" {
		name = kind.String()
	}
	if attrs == nil {
		attrs = make(map[string]*Attribute)
	}
	e := &Expr{
		ID:         b.exprNum,
		Name:       name,
		Kind:       kind,
		Inputs:     inputs,
		Outputs:    outputs,
		Attributes: attrs,
	}
	b.exprNum++
	for _, out := range outputs {
		out.definition = e
	}
	b.exprs = append(b.exprs, e)
	return e
}

func (b *FusionBuilder) addSingleOutput(kind OpKind, inputs []*Val, dtype DType, rank int, attrs map[string]*Attribute) *Val {
	out := b.AddVal(fmt.Sprintf("%s_out", kind), dtype, rank)
	if b.AddExpr(kind, "", inputs, []*Val{out}, attrs) == nil {
		return nil
	}
	return out
}

// Set adds a copy of in
func (b *FusionBuilder) Set(in *Val) *Val {
	if in == nil {
		b.setErr("Set: nil input")
		return nil
	}
	return b.addSingleOutput(OpSet, []*Val{in}, in.DType, in.Rank, nil)
}

func (b *FusionBuilder) Unary(in *Val) *Val {
	if in == nil {
		b.setErr("Unary: nil input")
		return nil
	}
	return b.addSingleOutput(OpUnary, []*Val{in}, in.DType, in.Rank, nil)
}

func (b *FusionBuilder) Binary(lhs, rhs *Val) *Val {
	if lhs == nil || rhs == nil {
		b.setErr("Binary: nil input")
		return nil
	}
	return b.addSingleOutput(OpBinary, []*Val{lhs, rhs}, promote(lhs.DType, rhs.DType), max(lhs.Rank, rhs.Rank), nil)
}

func (b *FusionBuilder) Ternary(cond, x, y *Val) *Val {
	if cond == nil || x == nil || y == nil {
		b.setErr("Ternary: nil input")
		return nil
	}
	return b.addSingleOutput(OpTernary, []*Val{cond, x, y}, promote(x.DType, y.DType), max(cond.Rank, x.Rank, y.Rank), nil)
}

func (b *FusionBuilder) Cast(in *Val, dtype DType) *Val {
	if in == nil {
		b.setErr("Cast: nil input")
		return nil
	}
	return b.addSingleOutput(OpCast, []*Val{in}, dtype, in.Rank,
		map[string]*Attribute{AttrDType: NewDTypeAttribute(dtype)})
}

func (b *FusionBuilder) Broadcast(in *Val, rank int) *Val {
	if in == nil {
		b.setErr("Broadcast: nil input")
		return nil
	}
	if rank < in.Rank {
		b.setErr("Broadcast: cannot broadcast rank %d to %d", in.Rank, rank)
		return nil
	}
	return b.addSingleOutput(OpBroadcast, []*Val{in}, in.DType, rank, nil)
}

func (b *FusionBuilder) Squeeze(in *Val, dims []int64) *Val {
	if in == nil {
		b.setErr("Squeeze: nil input")
		return nil
	}
	if len(dims) > in.Rank {
		b.setErr("Squeeze: %d dims exceed rank %d", len(dims), in.Rank)
		return nil
	}
	return b.addSingleOutput(OpSqueeze, []*Val{in}, in.DType, in.Rank-len(dims),
		map[string]*Attribute{AttrDims: NewIntsAttribute(dims)})
}

func (b *FusionBuilder) Reshape(in *Val, rank int) *Val {
	if in == nil {
		b.setErr("Reshape: nil input")
		return nil
	}
	return b.addSingleOutput(OpReshape, []*Val{in}, in.DType, rank, nil)
}

func (b *FusionBuilder) Permute(in *Val, perm []int64) *Val {
	if in == nil {
		b.setErr("Permute: nil input")
		return nil
	}
	return b.addSingleOutput(OpPermute, []*Val{in}, in.DType, in.Rank,
		map[string]*Attribute{AttrPerm: NewIntsAttribute(perm)})
}

func (b *FusionBuilder) Reduce(in *Val, axes []int64) *Val {
	if in == nil {
		b.setErr("Reduce: nil input")
		return nil
	}
	if len(axes) > in.Rank {
		b.setErr("Reduce: %d axes exceed rank %d", len(axes), in.Rank)
		return nil
	}
	return b.addSingleOutput(OpReduction, []*Val{in}, in.DType, in.Rank-len(axes),
		map[string]*Attribute{AttrAxes: NewIntsAttribute(axes)})
}

func (b *FusionBuilder) Full(dtype DType, rank int, value float64) *Val {
	return b.addSingleOutput(OpFull, nil, dtype, rank,
		map[string]*Attribute{AttrValue: NewDoubleAttribute(value)})
}

func (b *FusionBuilder) Matmul(lhs, rhs *Val) *Val {
	if lhs == nil || rhs == nil {
		b.setErr("Matmul: nil input")
		return nil
	}
	return b.addSingleOutput(OpMatmul, []*Val{lhs, rhs}, promote(lhs.DType, rhs.DType), max(lhs.Rank, rhs.Rank), nil)
}

// Linear adds in @ weight^T (+ bias); bias may be nil.
func (b *FusionBuilder) Linear(in, weight, bias *Val) *Val {
	if in == nil || weight == nil {
		b.setErr("Linear: nil input")
		return nil
	}
	inputs := []*Val{in, weight}
	if bias != nil {
		inputs = append(inputs, bias)
	}
	return b.addSingleOutput(OpLinear, inputs, in.DType, in.Rank, nil)
}

// SdpaFwd adds a fused attention forward producing the attention output and
// its log-sum-exp.
func (b *FusionBuilder) SdpaFwd(q, k, v *Val) (*Val, *Val) {
	if q == nil || k == nil || v == nil {
		b.setErr("SdpaFwd: nil input")
		return nil, nil
	}
	out := b.AddVal("sdpa_out", q.DType, q.Rank)
	lse := b.AddVal("sdpa_logsumexp", DTypeFloat, max(q.Rank-1, 0))
	if b.AddExpr(OpSdpaFwd, "", []*Val{q, k, v}, []*Val{out, lse}, nil) == nil {
		return nil, nil
	}
	return out, lse
}

// SdpaBwd adds a fused attention backward producing the gradients of q, k, v.
func (b *FusionBuilder) SdpaBwd(gradOut, q, k, v, out, lse *Val) (*Val, *Val, *Val) {
	for _, in := range []*Val{gradOut, q, k, v, out, lse} {
		if in == nil {
			b.setErr("SdpaBwd: nil input")
			return nil, nil, nil
		}
	}
	gq := b.AddVal("grad_q", q.DType, q.Rank)
	gk := b.AddVal("grad_k", k.DType, k.Rank)
	gv := b.AddVal("grad_v", v.DType, v.Rank)
	if b.AddExpr(OpSdpaBwd, "", []*Val{gradOut, q, k, v, out, lse}, []*Val{gq, gk, gv}, nil) == nil {
		return nil, nil, nil
	}
	return gq, gk, gv
}

// MarkOutput marks v as a fusion output
func (b *FusionBuilder) MarkOutput(v *Val) {
	if v == nil {
		b.setErr("MarkOutput: nil val")
		return
	}
	v.isFusionOutput = true
	b.outputs = append(b.outputs, v)
}

// SetResharding marks the fusion as requiring cross-device redistribution.
func (b *FusionBuilder) SetResharding(resharding bool) {
	b.resharding = resharding
}

// Build checks and returns the fusion
func (b *FusionBuilder) Build() (*Fusion, error) {
	if b.err != nil {
		return nil, fmt.Errorf("build fusion %s: %w", b.name, b.err)
	}
	f := &Fusion{
		ID:         uuid.NewString(),
		Name:       b.name,
		inputs:     b.inputs,
		outputs:    b.outputs,
		exprs:      b.exprs,
		vals:       b.vals,
		resharding: b.resharding,
	}
	if err := NewFusionChecker().Check(f); err != nil {
		return nil, fmt.Errorf("build fusion %s: %w", b.name, err)
	}
	return f, nil
}
