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

package server

const (
	HealthPath     = "/health"
	SchedulePath   = "/fuser/v1/schedule"
	RejectionsPath = "/fuser/v1/rejections"
	DecisionPath   = "/fuser/v1/decisions/:fusion_id"
	HeuristicsPath = "/fuser/v1/heuristics"
)
