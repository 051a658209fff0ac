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
)

// Variadic marks an unbounded arity.
const Variadic = -1

// OpDef defines the signature of an op kind
type OpDef struct {
	kind       OpKind
	name       string
	aliases    []string
	category   OpCategory
	minInputs  int
	maxInputs  int
	minOutputs int
	maxOutputs int
	attributes []string
	definition string
	err        error
}

// SetKind sets the kind the def describes
func (op *OpDef) SetKind(kind OpKind) {
	if op.err != nil {
		return
	}
	if kind == OpUnknown {
		op.err = fmt.Errorf("op def %q: unknown kind", op.name)
		return
	}
	op.kind = kind
}

func (op *OpDef) GetKind() OpKind {
	return op.kind
}

// SetName sets name of an op def
func (op *OpDef) SetName(name string) {
	op.name = name
}

func (op *OpDef) GetName() string {
	return op.name
}

// AddAlias adds a short name accepted by description files
func (op *OpDef) AddAlias(alias string) {
	op.aliases = append(op.aliases, alias)
}

func (op *OpDef) GetAliases() []string {
	return op.aliases
}

func (op *OpDef) SetCategory(category OpCategory) {
	op.category = category
}

func (op *OpDef) GetCategory() OpCategory {
	return op.category
}

// SetInputArity sets the accepted number of inputs, max may be Variadic
func (op *OpDef) SetInputArity(min, max int) {
	if op.err != nil {
		return
	}
	if min < 0 || (max != Variadic && max < min) {
		op.err = fmt.Errorf("op def %q: invalid input arity [%d, %d]", op.name, min, max)
		return
	}
	op.minInputs, op.maxInputs = min, max
}

// SetOutputArity sets the accepted number of outputs, max may be Variadic
func (op *OpDef) SetOutputArity(min, max int) {
	if op.err != nil {
		return
	}
	if min < 1 || (max != Variadic && max < min) {
		op.err = fmt.Errorf("op def %q: invalid output arity [%d, %d]", op.name, min, max)
		return
	}
	op.minOutputs, op.maxOutputs = min, max
}

// AddAttribute adds a required attribute name
func (op *OpDef) AddAttribute(name string) {
	if op.err != nil {
		return
	}
	op.attributes = append(op.attributes, name)
}

func (op *OpDef) RequiredAttributes() []string {
	return op.attributes
}

// SetDefinition adds detailed definition of the op
func (op *OpDef) SetDefinition(comment string) {
	op.definition = comment
}

func (op *OpDef) GetDefinition() string {
	return op.definition
}

func (op *OpDef) Err() error {
	return op.err
}

// CheckArity checks the number of inputs and outputs of an expression
// against the def.
func (op *OpDef) CheckArity(numInputs, numOutputs int) error {
	if numInputs < op.minInputs || (op.maxInputs != Variadic && numInputs > op.maxInputs) {
		return fmt.Errorf("%s expects %s inputs, got %d", op.name, arityString(op.minInputs, op.maxInputs), numInputs)
	}
	if numOutputs < op.minOutputs || (op.maxOutputs != Variadic && numOutputs > op.maxOutputs) {
		return fmt.Errorf("%s expects %s outputs, got %d", op.name, arityString(op.minOutputs, op.maxOutputs), numOutputs)
	}
	return nil
}

// InputArity formats the accepted number of inputs, e.g. "2 to 3".
func (op *OpDef) InputArity() string {
	return arityString(op.minInputs, op.maxInputs)
}

func (op *OpDef) OutputArity() string {
	return arityString(op.minOutputs, op.maxOutputs)
}

func arityString(min, max int) string {
	switch {
	case max == Variadic:
		return fmt.Sprintf("at least %d", min)
	case min == max:
		return fmt.Sprintf("%d", min)
	default:
		return fmt.Sprintf("%d to %d", min, max)
	}
}
