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

package storage

import (
	"encoding/json"
	"time"

	"github.com/golang/snappy"
	"github.com/pkg/errors"

	"github.com/secretflow/fuser/pkg/fusion"
	"github.com/secretflow/fuser/pkg/scheduler"
	"github.com/secretflow/fuser/pkg/status"
)

type DecisionRecord struct {
	ID          uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	FusionID    string `gorm:"column:fusion_id;type:varchar(64);index;not null"`
	FusionName  string `gorm:"column:fusion_name;type:varchar(128);comment:'fusion name'"`
	Fingerprint string `gorm:"column:fingerprint;type:varchar(32);index;comment:'structural hash of the fusion'"`
	Heuristic   string `gorm:"column:heuristic;type:varchar(32);comment:'selected heuristic, none if selection failed'"`
	Code        string `gorm:"column:code;type:varchar(64);comment:'status code name'"`
	Config      string `gorm:"column:config;type:text;comment:'heuristic config in json format'"`
	ErrorMsg    string `gorm:"column:error_msg;type:text"`
	// snappy compressed graphviz dump
	GraphDump       []byte    `gorm:"column:graph_dump"`
	CachedSelection bool      `gorm:"column:cached_selection"`
	CompileTimeUs   int64     `gorm:"column:compile_time_us"`
	RuntimeUs       int64     `gorm:"column:runtime_us"`
	CreatedAt       time.Time `gorm:"index"`
}

type RejectionRecord struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	FusionID  string    `gorm:"column:fusion_id;type:varchar(64);index;not null"`
	Heuristic string    `gorm:"column:heuristic;type:varchar(32);not null"`
	Reason    string    `gorm:"column:reason;type:text"`
	CreatedAt time.Time `gorm:"index"`
}

// NewDecisionRecord captures the outcome of scheduling f. d may be nil when
// scheduling failed before a decision was formed.
func NewDecisionRecord(f *fusion.Fusion, d *scheduler.Decision, err error) (*DecisionRecord, error) {
	rec := &DecisionRecord{
		FusionID:    f.ID,
		FusionName:  f.Name,
		Fingerprint: f.Fingerprint(),
		Heuristic:   scheduler.HeuristicNone.String(),
		Code:        status.CodeOf(err).String(),
		GraphDump:   CompressDump(f.DumpGraphviz()),
	}
	if err != nil {
		rec.ErrorMsg = err.Error()
	}
	if d == nil {
		return rec, nil
	}
	rec.Heuristic = d.Heuristic.String()
	rec.CachedSelection = d.CachedSelection
	rec.CompileTimeUs = d.CompileTimeCost.Microseconds()
	rec.RuntimeUs = d.RuntimeCost.Microseconds()
	if d.Config != nil {
		content, err := json.Marshal(d.Config)
		if err != nil {
			return nil, errors.Wrapf(err, "marshal %s config", d.Heuristic)
		}
		rec.Config = string(content)
	}
	return rec, nil
}

func CompressDump(dump string) []byte {
	return snappy.Encode(nil, []byte(dump))
}

func DecompressDump(data []byte) (string, error) {
	content, err := snappy.Decode(nil, data)
	if err != nil {
		return "", errors.Wrap(err, "decompress graph dump")
	}
	return string(content), nil
}
