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
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/secretflow/fuser/pkg/scheduler"
)

var checkCmd = &cobra.Command{
	Use:   "check FUSION_FILE",
	Short: "Run every heuristic's compile-time check and show which one would be selected",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCheck(cmd.OutOrStdout(), args[0])
	},
}

// runCheck evaluates all heuristics, unlike the registry which stops at
// the first one accepting.
func runCheck(w io.Writer, fusionFile string) error {
	f, err := loadFusion(fusionFile)
	if err != nil {
		return err
	}
	opts, err := schedulerOptions()
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "[check] fusion %s, fingerprint %s\n", f.Name, f.Fingerprint())
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Priority", "Heuristic", "Accept", "Selected", "Kind", "Reason"})
	selected := scheduler.HeuristicNone
	for i, h := range scheduler.DefaultHeuristics() {
		ht := h.Type()
		var rej *scheduler.Rejection
		if opts.IsHeuristicDisabled(ht) {
			rej = &scheduler.Rejection{Heuristic: ht, Kind: scheduler.PolicyDisabled, Reason: fmt.Sprintf("heuristic %s is disabled", ht)}
		} else {
			rej = h.CanScheduleCompileTime(f, opts)
		}
		row := []string{fmt.Sprint(i), ht.String(), "true", "", "-", "-"}
		if rej != nil {
			row[2] = "false"
			row[4] = rej.Kind.String()
			row[5] = rej.Reason
		} else if selected == scheduler.HeuristicNone {
			selected = ht
			row[3] = "*"
		}
		table.Append(row)
	}
	table.Render()
	if selected == scheduler.HeuristicNone {
		return fmt.Errorf("no applicable scheduling strategy found for fusion %s", f.Name)
	}
	return nil
}
