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
	"context"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/secretflow/fuser/pkg/fusion/desc"
	"github.com/secretflow/fuser/pkg/scheduler"
	"github.com/secretflow/fuser/pkg/scheduler/debugutil"
)

var (
	argsFile string

	scheduleCmd = &cobra.Command{
		Use:   "schedule FUSION_FILE --args ARGS_FILE",
		Short: "Dispatch a fusion with runtime arguments and print the decision",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchedule(cmd.OutOrStdout(), args[0], argsFile)
		},
	}
)

func init() {
	scheduleCmd.Flags().StringVar(&argsFile, "args", "", "runtime arguments file in yaml or json")
	scheduleCmd.MarkFlagRequired("args")
}

func runSchedule(w io.Writer, fusionFile, argsFile string) error {
	f, err := loadFusion(fusionFile)
	if err != nil {
		return err
	}
	a, err := desc.LoadArgs(argsFile)
	if err != nil {
		return err
	}
	args, err := a.RuntimeArgs(f)
	if err != nil {
		return err
	}
	opts, err := schedulerOptions()
	if err != nil {
		return err
	}

	registry := scheduler.NewRegistry(opts, debugutil.LogReporter{FusionID: f.ID})
	d, schedErr := registry.Schedule(context.Background(), f, args)
	printDecision(w, f.Name, d, schedErr)
	if len(d.Rejections) > 0 {
		printRejections(w, d.Rejections)
	}
	if schedErr != nil {
		return schedErr
	}
	fmt.Fprintf(w, "[bindings]\n%s", f.DumpBindings())
	return nil
}

func printDecision(w io.Writer, name string, d *scheduler.Decision, err error) {
	fmt.Fprintf(w, "[decision]\n")
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Fusion", "Heuristic", "Cached", "Config", "CompileTime", "Runtime", "Error"})
	config := "-"
	if d.Config != nil {
		config = d.Config.String()
	}
	errMsg := "-"
	if err != nil {
		errMsg = err.Error()
	}
	table.Append([]string{name, d.Heuristic.String(), fmt.Sprint(d.CachedSelection), config, d.CompileTimeCost.String(), d.RuntimeCost.String(), errMsg})
	table.Render()
}

func printRejections(w io.Writer, rejections []scheduler.Rejection) {
	fmt.Fprintf(w, "[rejections]\n")
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Heuristic", "Kind", "Reason"})
	for _, rej := range rejections {
		table.Append([]string{rej.Heuristic.String(), rej.Kind.String(), rej.Reason})
	}
	table.Render()
}
