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
	"time"
)

// ScheduleLogEntry is the pipe-delimited record of one scheduling phase
type ScheduleLogEntry struct {
	FusionID   string
	FusionName string
	Phase      string
	Heuristic  string
	CostTime   time.Duration
	Reason     string
	ErrorMsg   string
}

func (b ScheduleLogEntry) String() string {
	return fmt.Sprintf("|FusionID:%v|FusionName:%v|Phase:%v|Heuristic:%v|CostTime:%v|Reason:%v|ErrorMsg:%v",
		b.FusionID, b.FusionName, b.Phase, b.Heuristic, b.CostTime, b.Reason, b.ErrorMsg)
}

// RejectionLogEntry records one heuristic declining a fusion
type RejectionLogEntry struct {
	FusionID  string
	Heuristic string
	Reason    string
}

func (b RejectionLogEntry) String() string {
	return fmt.Sprintf("|FusionID:%v|Heuristic:%v|Reason:%v", b.FusionID, b.Heuristic, b.Reason)
}
