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
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/secretflow/fuser/pkg/fusion"
)

var opsCmd = &cobra.Command{
	Use:   "ops",
	Short: "List the ops a fusion description may use",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "[ops] version %d\n", fusion.OpKindVersion())
		table := tablewriter.NewWriter(cmd.OutOrStdout())
		table.SetAutoWrapText(false)
		table.SetAutoFormatHeaders(false)
		table.SetHeader([]string{"Op", "Aliases", "Category", "Inputs", "Outputs", "Attributes"})
		for _, def := range fusion.AllOpDefs() {
			table.Append([]string{
				def.GetName(),
				strings.Join(def.GetAliases(), ","),
				def.GetCategory().String(),
				def.InputArity(),
				def.OutputArity(),
				strings.Join(def.RequiredAttributes(), ","),
			})
		}
		table.Render()
	},
}
