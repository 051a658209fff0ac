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
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// AllocationType tells the executor how an output buffer comes to exist.
type AllocationType int

const (
	// allocated explicitly and written by a generated kernel
	AllocationNew AllocationType = iota
	// shares the buffer of a fusion input
	AllocationReuseBuffer
	// produced by directly evaluating the producing expression
	AllocationEvaluate
)

func (t AllocationType) String() string {
	switch t {
	case AllocationNew:
		return "New"
	case AllocationReuseBuffer:
		return "ReuseBuffer"
	case AllocationEvaluate:
		return "Evaluate"
	default:
		return fmt.Sprintf("AllocationType(%d)", int(t))
	}
}

// OutputAlias binds a fusion output outside of generated code.
// Input is nil when no input buffer is designated.
type OutputAlias struct {
	Input *Val
	Type  AllocationType
}

// KernelRegion is a part of the fusion lowered to generated code.
type KernelRegion struct {
	Heuristic string
	Exprs     []*Expr
	Outputs   []*Val
	// heuristic specific launch parameters
	Params any
}

// Fusion is a graph of tensor expressions scheduled and executed as one unit.
// Topology is fixed once built; only output bindings change afterwards.
type Fusion struct {
	ID   string
	Name string

	inputs     []*Val
	outputs    []*Val
	exprs      []*Expr
	vals       []*Val
	resharding bool

	aliases map[*Val]OutputAlias
	kernels []*KernelRegion
}

// Exprs returns expressions in topological order.
func (f *Fusion) Exprs() []*Expr {
	exprs := make([]*Expr, len(f.exprs))
	copy(exprs, f.exprs)
	return exprs
}

func (f *Fusion) Inputs() []*Val {
	inputs := make([]*Val, len(f.inputs))
	copy(inputs, f.inputs)
	return inputs
}

func (f *Fusion) Outputs() []*Val {
	outputs := make([]*Val, len(f.outputs))
	copy(outputs, f.outputs)
	return outputs
}

func (f *Fusion) Vals() []*Val {
	vals := make([]*Val, len(f.vals))
	copy(vals, f.vals)
	return vals
}

// IsResharding reports whether executing the fusion moves data across devices.
func (f *Fusion) IsResharding() bool {
	return f.resharding
}

// ConsumersOf returns expressions reading v, in topological order.
func (f *Fusion) ConsumersOf(v *Val) []*Expr {
	var consumers []*Expr
	for _, e := range f.exprs {
		for _, in := range e.Inputs {
			if in == v {
				consumers = append(consumers, e)
				break
			}
		}
	}
	return consumers
}

// InputIndex returns the position of v among fusion inputs, -1 if absent.
func (f *Fusion) InputIndex(v *Val) int {
	for i, in := range f.inputs {
		if in == v {
			return i
		}
	}
	return -1
}

// AliasOutputToInput binds out to be produced outside of generated code.
// Binding the same output again overwrites the previous alias.
func (f *Fusion) AliasOutputToInput(out *Val, in *Val, typ AllocationType) error {
	if out == nil || !out.isFusionOutput {
		return fmt.Errorf("AliasOutputToInput: %v is not a fusion output", out)
	}
	if in != nil && !in.isFusionInput {
		return fmt.Errorf("AliasOutputToInput: %s is not a fusion input", in.ToBriefString())
	}
	switch typ {
	case AllocationEvaluate:
	case AllocationReuseBuffer:
		if in == nil {
			return fmt.Errorf("AliasOutputToInput: %s needs an input buffer to reuse", out.ToBriefString())
		}
	default:
		return fmt.Errorf("AliasOutputToInput: allocation type %v cannot alias, use a kernel region", typ)
	}
	if f.aliases == nil {
		f.aliases = make(map[*Val]OutputAlias)
	}
	f.aliases[out] = OutputAlias{Input: in, Type: typ}
	return nil
}

// GetOutputAlias returns the alias bound to out.
func (f *Fusion) GetOutputAlias(out *Val) (OutputAlias, bool) {
	alias, ok := f.aliases[out]
	return alias, ok
}

// SetKernelRegions replaces all kernel regions of the fusion.
func (f *Fusion) SetKernelRegions(regions ...*KernelRegion) error {
	for _, r := range regions {
		for _, out := range r.Outputs {
			if !out.isFusionOutput {
				return fmt.Errorf("SetKernelRegions: region %s writes %s which is not a fusion output", r.Heuristic, out.ToBriefString())
			}
		}
	}
	f.kernels = append([]*KernelRegion(nil), regions...)
	return nil
}

func (f *Fusion) KernelRegions() []*KernelRegion {
	return append([]*KernelRegion(nil), f.kernels...)
}

// ResetBindings drops all aliases and kernel regions.
func (f *Fusion) ResetBindings() {
	f.aliases = nil
	f.kernels = nil
}

// UnboundOutputs returns outputs with neither an alias nor a kernel region.
func (f *Fusion) UnboundOutputs() []*Val {
	bound := make(map[*Val]bool)
	for out := range f.aliases {
		bound[out] = true
	}
	for _, r := range f.kernels {
		for _, out := range r.Outputs {
			bound[out] = true
		}
	}
	var unbound []*Val
	for _, out := range f.outputs {
		if !bound[out] {
			unbound = append(unbound, out)
		}
	}
	return unbound
}

// Fingerprint hashes the static structure of the fusion: kinds, topology,
// dtypes, ranks, attributes and the resharding flag. Names and IDs are
// ignored, so structurally equal fusions share a fingerprint.
func (f *Fusion) Fingerprint() string {
	ordinal := make(map[*Val]int, len(f.vals))
	next := 0
	ord := func(v *Val) int {
		if o, ok := ordinal[v]; ok {
			return o
		}
		ordinal[v] = next
		next++
		return ordinal[v]
	}

	d := xxhash.New()
	fmt.Fprintf(d, "v%d|r%t|", opKindVersion, f.resharding)
	for _, in := range f.inputs {
		fmt.Fprintf(d, "i%d:%d:%d|", ord(in), in.DType, in.Rank)
	}
	for _, e := range f.exprs {
		fmt.Fprintf(d, "e%d(", e.Kind)
		for _, in := range e.Inputs {
			fmt.Fprintf(d, "%d,", ord(in))
		}
		fmt.Fprint(d, ")->(")
		for _, out := range e.Outputs {
			fmt.Fprintf(d, "%d:%d:%d,", ord(out), out.DType, out.Rank)
		}
		fmt.Fprint(d, ")")
		keys := make([]string, 0, len(e.Attributes))
		for k := range e.Attributes {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(d, "%s=%s;", k, e.Attributes[k].ToString())
		}
		fmt.Fprint(d, "|")
	}
	for _, out := range f.outputs {
		fmt.Fprintf(d, "o%d|", ord(out))
	}
	return fmt.Sprintf("%016x", d.Sum64())
}

// TopologicalSort orders exprs so producers precede consumers.
func (f *Fusion) TopologicalSort() ([]*Expr, error) {
	indegrees := make(map[*Expr]int)
	for _, e := range f.exprs {
		indegrees[e] = 0
	}
	for _, e := range f.exprs {
		for _, in := range e.Inputs {
			if in.definition != nil {
				indegrees[e]++
			}
		}
	}

	var queue []*Expr
	for _, e := range f.exprs {
		if indegrees[e] == 0 {
			queue = append(queue, e)
		}
	}
	// NOTE: sort by ID to enforce determinism
	sort.Slice(queue, func(i, j int) bool { return queue[i].ID < queue[j].ID })

	var sorted []*Expr
	for len(queue) != 0 {
		cur := queue[0]
		queue = queue[1:]
		sorted = append(sorted, cur)

		toAppend := []*Expr{}
		for _, out := range cur.Outputs {
			for _, consumer := range f.ConsumersOf(out) {
				for _, in := range consumer.Inputs {
					if in == out {
						indegrees[consumer]--
					}
				}
				if indegrees[consumer] == 0 {
					toAppend = append(toAppend, consumer)
				}
			}
		}
		sort.Slice(toAppend, func(i, j int) bool { return toAppend[i].ID < toAppend[j].ID })
		queue = append(queue, toAppend...)
	}
	if len(sorted) != len(f.exprs) {
		// circle in DAG!
		return nil, fmt.Errorf("topological sort fail: maybe circle in fusion %s", f.Name)
	}
	return sorted, nil
}

// DumpGraphviz dumps a graph viz for visualization
func (f *Fusion) DumpGraphviz() string {
	var builder strings.Builder
	fmt.Fprintln(&builder, "digraph G {")
	convertToSingleQuote := func(s string) string {
		return strings.ReplaceAll(s, "\"", "'")
	}

	for _, in := range f.inputs {
		fmt.Fprintf(&builder, "in%d [shape=box,label=\"%s\"]\n", in.ID, convertToSingleQuote(in.ToBriefString()))
	}
	for _, e := range f.exprs {
		fmt.Fprintf(&builder, "e%d [label=\"%s\"]\n", e.ID, convertToSingleQuote(e.ToBriefString()))
	}
	for _, out := range f.outputs {
		fmt.Fprintf(&builder, "out%d [shape=box,label=\"%s\"]\n", out.ID, convertToSingleQuote(out.ToBriefString()))
	}

	var all []string
	source := func(v *Val) string {
		if v.definition != nil {
			return fmt.Sprintf("e%d", v.definition.ID)
		}
		return fmt.Sprintf("in%d", v.ID)
	}
	for _, e := range f.exprs {
		for _, in := range e.Inputs {
			all = append(all, fmt.Sprintf("%s -> e%d [label = \"T%d\"]\n", source(in), e.ID, in.ID))
		}
	}
	for _, out := range f.outputs {
		all = append(all, fmt.Sprintf("%s -> out%d\n", source(out), out.ID))
	}
	sort.Strings(all)
	fmt.Fprint(&builder, strings.Join(all, ""))
	fmt.Fprint(&builder, "}")
	return builder.String()
}

// DumpBindings dumps how every output is produced
func (f *Fusion) DumpBindings() string {
	var builder strings.Builder
	for _, out := range f.outputs {
		if alias, ok := f.aliases[out]; ok {
			input := "none"
			if alias.Input != nil {
				input = alias.Input.ToBriefString()
			}
			fmt.Fprintf(&builder, "%s <- alias{input:%s,allocation:%s}\n", out.ToBriefString(), input, alias.Type)
			continue
		}
		bound := false
		for _, r := range f.kernels {
			for _, o := range r.Outputs {
				if o == out {
					fmt.Fprintf(&builder, "%s <- kernel{heuristic:%s,exprs:%d,allocation:%s}\n", out.ToBriefString(), r.Heuristic, len(r.Exprs), AllocationNew)
					bound = true
				}
			}
		}
		if !bound {
			fmt.Fprintf(&builder, "%s <- unbound\n", out.ToBriefString())
		}
	}
	return builder.String()
}
