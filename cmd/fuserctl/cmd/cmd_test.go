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

package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

var testdata = filepath.Join("..", "..", "..", "pkg", "fusion", "desc", "testdata")

func resetFlags() {
	disable = ""
	disabledHeuristics = nil
	logLevel = "warn"
	dotOutput = ""
}

func TestSchedule(t *testing.T) {
	r := require.New(t)
	resetFlags()

	var out bytes.Buffer
	err := runSchedule(&out, filepath.Join(testdata, "bias_gelu.yaml"), filepath.Join(testdata, "bias_gelu_args.yaml"))
	r.NoError(err)
	r.Contains(out.String(), "[decision]")
	r.Contains(out.String(), "pointwise")
	r.Contains(out.String(), "[bindings]")
	r.Contains(out.String(), "kernel{heuristic:pointwise")

	out.Reset()
	err = runSchedule(&out, filepath.Join(testdata, "bias_gelu.yaml"), filepath.Join(testdata, "missing_args.yaml"))
	r.Error(err)
	r.Empty(out.String())
}

func TestScheduleAllRejected(t *testing.T) {
	r := require.New(t)
	resetFlags()
	disabledHeuristics = []string{"pointwise", "expr_eval"}
	defer resetFlags()

	var out bytes.Buffer
	err := runSchedule(&out, filepath.Join(testdata, "bias_gelu.yaml"), filepath.Join(testdata, "bias_gelu_args.yaml"))
	r.Error(err)
	r.Contains(out.String(), "[rejections]")
	r.Contains(out.String(), "PolicyDisabled")
	r.NotContains(out.String(), "[bindings]")
}

func TestCheck(t *testing.T) {
	r := require.New(t)
	resetFlags()

	var out bytes.Buffer
	r.NoError(runCheck(&out, filepath.Join(testdata, "bias_gelu.yaml")))
	r.Contains(out.String(), "fusion bias_gelu")
	for _, name := range []string{"no_op", "expr_eval", "pointwise", "reduction", "transpose"} {
		r.Contains(out.String(), name)
	}
	r.Contains(out.String(), "*")

	disabledHeuristics = []string{"bogus"}
	defer resetFlags()
	r.Error(runCheck(&out, filepath.Join(testdata, "bias_gelu.yaml")))
}

func TestRootCommands(t *testing.T) {
	r := require.New(t)
	resetFlags()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	defer rootCmd.SetOut(nil)
	defer rootCmd.SetErr(nil)

	rootCmd.SetArgs([]string{"ops"})
	r.NoError(rootCmd.Execute())
	r.Contains(out.String(), "MatmulOp")
	r.Contains(out.String(), "2 to 3")

	out.Reset()
	rootCmd.SetArgs([]string{"dot", filepath.Join(testdata, "row_sum.hcl")})
	r.NoError(rootCmd.Execute())
	r.Contains(out.String(), "digraph G {")

	dotFile := filepath.Join(t.TempDir(), "row_sum.dot")
	rootCmd.SetArgs([]string{"dot", filepath.Join(testdata, "row_sum.hcl"), "-o", dotFile})
	r.NoError(rootCmd.Execute())
	content, err := os.ReadFile(dotFile)
	r.NoError(err)
	r.Contains(string(content), "digraph G {")

	rootCmd.SetArgs([]string{"schedule", filepath.Join(testdata, "bad_op.yaml"), "--args", filepath.Join(testdata, "bias_gelu_args.yaml")})
	r.Error(rootCmd.Execute())

	rootCmd.SetArgs([]string{"--log-level", "loud", "ops"})
	r.Error(rootCmd.Execute())
}
