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

package logutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const DefaultTimestampFormat = "2006-01-02 15:04:05.123"

var _ logrus.Formatter = &CustomMonitorFormatter{}

// custom monitor formatter, e.g.: "2020-07-14 16:59:47.7144 INFO registry.go:107 |msg"
type CustomMonitorFormatter struct {
	TimestampFormat string
}

func NewCustomMonitorFormatter(timestampFormat string) *CustomMonitorFormatter {
	return &CustomMonitorFormatter{
		TimestampFormat: timestampFormat,
	}
}

func (f *CustomMonitorFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var fileWithLine string
	if entry.HasCaller() {
		fileWithLine = fmt.Sprintf("%s:%d", filepath.Base(entry.Caller.File), entry.Caller.Line)
	} else {
		fileWithLine = ":"
	}
	return []byte(fmt.Sprintf("%s %s %s %s\n", entry.Time.Format(f.TimestampFormat),
		strings.ToUpper(entry.Level.String()), fileWithLine, entry.Message)), nil
}

// RollingConf configures the rolling log file; an empty FileName logs to
// stdout only.
type RollingConf struct {
	FileName          string `yaml:"file_name"`
	MaxSizeInMegaByte int    `yaml:"max_size_in_mega_byte"`
	MaxBackupsCount   int    `yaml:"max_backups_count"`
	MaxAgeInDays      int    `yaml:"max_age_in_days"`
	Compress          bool   `yaml:"compress"`
}

// SetupLogger configures the standard logrus logger and returns its output.
func SetupLogger(level string, conf RollingConf) (io.Writer, error) {
	logrus.SetReportCaller(true)
	logrus.SetFormatter(NewCustomMonitorFormatter(DefaultTimestampFormat))

	var out io.Writer = os.Stdout
	if conf.FileName != "" {
		rollingLogger := &lumberjack.Logger{
			Filename:   conf.FileName,
			MaxSize:    conf.MaxSizeInMegaByte, // megabytes
			MaxBackups: conf.MaxBackupsCount,
			MaxAge:     conf.MaxAgeInDays, //days
			Compress:   conf.Compress,
		}
		out = io.MultiWriter(os.Stdout, rollingLogger)
	}
	logrus.SetOutput(out)

	if level != "" {
		lvl, err := logrus.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		logrus.SetLevel(lvl)
	}
	return out, nil
}
