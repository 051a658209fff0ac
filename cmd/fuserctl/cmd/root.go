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
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/secretflow/fuser/pkg/fusion"
	"github.com/secretflow/fuser/pkg/fusion/desc"
	"github.com/secretflow/fuser/pkg/scheduler"
	"github.com/secretflow/fuser/pkg/util/logutil"
)

var (
	disable            string
	disabledHeuristics []string
	logLevel           string

	rootCmd = &cobra.Command{
		Use:   "fuserctl",
		Short: "A tool to inspect how fusions are dispatched to scheduling heuristics",
		Long:  `Fuserctl loads fusion descriptions (yaml, json or hcl) and runtime arguments, then shows which heuristic schedules them and why the others declined.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logrus.SetOutput(os.Stderr)
			logrus.SetFormatter(logutil.NewCustomMonitorFormatter(logutil.DefaultTimestampFormat))
			lvl, err := logrus.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			logrus.SetLevel(lvl)
			return nil
		},
		SilenceUsage: true,
	}
)

func Execute() error {
	return rootCmd.Execute()
}

func SetVersion(version string) {
	rootCmd.Version = version
}

func init() {
	rootCmd.PersistentFlags().StringVar(&disable, "disable", os.Getenv(scheduler.DisableEnv), "comma separated disable options, defaults to $"+scheduler.DisableEnv)
	rootCmd.PersistentFlags().StringSliceVar(&disabledHeuristics, "disable-heuristic", nil, "heuristics to skip, e.g: transpose,no_op")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level")

	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(dotCmd)
	rootCmd.AddCommand(opsCmd)
}

func schedulerOptions() (*scheduler.Options, error) {
	parsed, err := scheduler.ParseDisableOptions(disable)
	if err != nil {
		return nil, err
	}
	opts := scheduler.NewOptions().WithDisabled(parsed...)
	for _, name := range disabledHeuristics {
		ht, err := scheduler.ParseHeuristicType(name)
		if err != nil {
			return nil, err
		}
		opts = opts.WithDisabledHeuristics(ht)
	}
	return opts, nil
}

func loadFusion(path string) (*fusion.Fusion, error) {
	d, err := desc.Load(path)
	if err != nil {
		return nil, err
	}
	return d.Build()
}
