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
	"strings"

	"golang.org/x/exp/slices"
)

// DisableEnv is the environment variable listing disable options.
const DisableEnv = "FUSER_DISABLE"

// DisableOption switches off a scheduling feature
type DisableOption string

const (
	// stop handing matmul and linear to native evaluation
	DisableMatmulExprEval DisableOption = "matmul_expr_eval"
	// skip the compile-time decision cache
	DisableHeuristicCache DisableOption = "heuristic_cache"
)

var knownDisableOptions = []DisableOption{
	DisableMatmulExprEval,
	DisableHeuristicCache,
}

// Options carries the switches read during scheduling. It is immutable:
// the With methods return modified copies, so one value can be shared by
// concurrent scheduling calls. A nil *Options disables nothing.
type Options struct {
	disabled           map[DisableOption]bool
	disabledHeuristics map[HeuristicType]bool
}

func NewOptions() *Options {
	return &Options{
		disabled:           map[DisableOption]bool{},
		disabledHeuristics: map[HeuristicType]bool{},
	}
}

func (o *Options) clone() *Options {
	c := NewOptions()
	if o == nil {
		return c
	}
	for k, v := range o.disabled {
		c.disabled[k] = v
	}
	for k, v := range o.disabledHeuristics {
		c.disabledHeuristics[k] = v
	}
	return c
}

func (o *Options) WithDisabled(opts ...DisableOption) *Options {
	c := o.clone()
	for _, opt := range opts {
		c.disabled[opt] = true
	}
	return c
}

func (o *Options) WithDisabledHeuristics(types ...HeuristicType) *Options {
	c := o.clone()
	for _, t := range types {
		c.disabledHeuristics[t] = true
	}
	return c
}

func (o *Options) IsOptionDisabled(opt DisableOption) bool {
	return o != nil && o.disabled[opt]
}

func (o *Options) IsHeuristicDisabled(t HeuristicType) bool {
	return o != nil && o.disabledHeuristics[t]
}

// DisabledOptions returns the disabled options sorted by name.
func (o *Options) DisabledOptions() []DisableOption {
	if o == nil {
		return nil
	}
	var opts []DisableOption
	for opt, disabled := range o.disabled {
		if disabled {
			opts = append(opts, opt)
		}
	}
	slices.Sort(opts)
	return opts
}

func (o *Options) DisabledHeuristics() []HeuristicType {
	if o == nil {
		return nil
	}
	var types []HeuristicType
	for t, disabled := range o.disabledHeuristics {
		if disabled {
			types = append(types, t)
		}
	}
	slices.Sort(types)
	return types
}

// Key identifies the options in cache keys.
func (o *Options) Key() string {
	var parts []string
	for _, opt := range o.DisabledOptions() {
		parts = append(parts, string(opt))
	}
	for _, t := range o.DisabledHeuristics() {
		parts = append(parts, "h:"+t.String())
	}
	return strings.Join(parts, ",")
}

func ParseDisableOption(s string) (DisableOption, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, opt := range knownDisableOptions {
		if string(opt) == name {
			return opt, nil
		}
	}
	return "", fmt.Errorf("unknown disable option %q, available: %v", s, knownDisableOptions)
}

// ParseDisableOptions parses a comma separated list such as the value of
// FUSER_DISABLE. Empty entries are ignored.
func ParseDisableOptions(s string) ([]DisableOption, error) {
	var opts []DisableOption
	for _, item := range strings.Split(s, ",") {
		if strings.TrimSpace(item) == "" {
			continue
		}
		opt, err := ParseDisableOption(item)
		if err != nil {
			return nil, err
		}
		opts = append(opts, opt)
	}
	slices.Sort(opts)
	return opts, nil
}
