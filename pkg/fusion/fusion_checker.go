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

var (
	_ checkFusionRule = &checkExprSignature{}
	_ checkFusionRule = &checkValDefinitions{}
	_ checkFusionRule = &checkOutputs{}
	_ checkFusionRule = &checkAttributes{}
)

type checkFusionRule interface {
	checkFusion(*Fusion) error
}

type FusionChecker struct {
	rules []checkFusionRule
}

// NewFusionChecker returns a checker running structural rules in order;
// later rules may rely on earlier ones having passed.
func NewFusionChecker() *FusionChecker {
	rules := []checkFusionRule{
		&checkExprSignature{},
		&checkValDefinitions{},
		&checkOutputs{},
		&checkAttributes{},
	}
	return &FusionChecker{rules: rules}
}

func (c *FusionChecker) Check(f *Fusion) error {
	for _, rule := range c.rules {
		if err := rule.checkFusion(f); err != nil {
			return err
		}
	}
	return nil
}

type checkExprSignature struct {
}

func (c checkExprSignature) checkFusion(f *Fusion) error {
	for _, e := range f.exprs {
		def, ok := LookupOpDef(e.Kind)
		if !ok {
			return fmt.Errorf("expr %s has unregistered kind %d", e.Name, e.Kind)
		}
		if err := def.CheckArity(len(e.Inputs), len(e.Outputs)); err != nil {
			return fmt.Errorf("expr %s: %v", e.Name, err)
		}
		for _, name := range def.RequiredAttributes() {
			if _, ok := e.Attributes[name]; !ok {
				return fmt.Errorf("expr %s: missing required attribute %s", e.Name, name)
			}
		}
	}
	return nil
}

// every val is defined exactly once and before its first use
type checkValDefinitions struct {
}

func (c checkValDefinitions) checkFusion(f *Fusion) error {
	defined := make(map[*Val]bool)
	for _, in := range f.inputs {
		if defined[in] {
			return fmt.Errorf("input %s listed twice", in.ToBriefString())
		}
		defined[in] = true
	}
	for _, e := range f.exprs {
		for _, in := range e.Inputs {
			if !defined[in] {
				return fmt.Errorf("expr %s reads %s before it is defined", e.Name, in.ToBriefString())
			}
		}
		for _, out := range e.Outputs {
			if defined[out] {
				return fmt.Errorf("expr %s redefines %s", e.Name, out.ToBriefString())
			}
			if out.definition != e {
				return fmt.Errorf("expr %s output %s points to another definition", e.Name, out.ToBriefString())
			}
			defined[out] = true
		}
	}
	return nil
}

type checkOutputs struct {
}

func (c checkOutputs) checkFusion(f *Fusion) error {
	if len(f.outputs) == 0 {
		return fmt.Errorf("fusion %s has no outputs", f.Name)
	}
	known := make(map[*Val]bool, len(f.vals))
	for _, v := range f.vals {
		known[v] = true
	}
	seen := make(map[*Val]bool)
	for _, out := range f.outputs {
		if !known[out] {
			return fmt.Errorf("output %s does not belong to fusion %s", out.ToBriefString(), f.Name)
		}
		if seen[out] {
			return fmt.Errorf("output %s listed twice", out.ToBriefString())
		}
		seen[out] = true
	}
	return nil
}

type checkAttributes struct {
}

func (c checkAttributes) checkFusion(f *Fusion) error {
	for _, e := range f.exprs {
		switch e.Kind {
		case OpPermute:
			perm, err := e.GetAttrInts(AttrPerm)
			if err != nil {
				return err
			}
			in := e.Inputs[0]
			if len(perm) != in.Rank {
				return fmt.Errorf("expr %s: perm %v does not match rank %d", e.Name, perm, in.Rank)
			}
			seen := make([]bool, in.Rank)
			for _, p := range perm {
				if p < 0 || int(p) >= in.Rank || seen[p] {
					return fmt.Errorf("expr %s: %v is not a permutation of [0, %d)", e.Name, perm, in.Rank)
				}
				seen[p] = true
			}
		case OpReduction:
			axes, err := e.GetAttrInts(AttrAxes)
			if err != nil {
				return err
			}
			in := e.Inputs[0]
			if len(axes) == 0 {
				return fmt.Errorf("expr %s: empty reduction axes", e.Name)
			}
			seen := make(map[int64]bool)
			for _, a := range axes {
				if a < 0 || int(a) >= in.Rank || seen[a] {
					return fmt.Errorf("expr %s: invalid reduction axes %v for rank %d", e.Name, axes, in.Rank)
				}
				seen[a] = true
			}
		case OpCast:
			if _, err := e.GetAttrDType(AttrDType); err != nil {
				return err
			}
		}
	}
	return nil
}
