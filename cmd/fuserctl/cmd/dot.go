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
	"os"

	"github.com/spf13/cobra"
)

var (
	dotOutput string

	dotCmd = &cobra.Command{
		Use:   "dot FUSION_FILE",
		Short: "Dump a fusion in graphviz format",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := loadFusion(args[0])
			if err != nil {
				return err
			}
			if dotOutput == "" {
				fmt.Fprintln(cmd.OutOrStdout(), f.DumpGraphviz())
				return nil
			}
			return os.WriteFile(dotOutput, []byte(f.DumpGraphviz()+"\n"), 0644)
		},
	}
)

func init() {
	dotCmd.Flags().StringVarP(&dotOutput, "output", "o", "", "write to file instead of stdout")
}
