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

// Package debugutil provides rejection reporters for the scheduler registry.
package debugutil

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/secretflow/fuser/pkg/scheduler"
	"github.com/secretflow/fuser/pkg/storage"
	"github.com/secretflow/fuser/pkg/util/logutil"
	prom "github.com/secretflow/fuser/pkg/util/prometheus"
)

var (
	_ scheduler.Reporter = LogReporter{}
	_ scheduler.Reporter = &Collector{}
	_ scheduler.Reporter = MetricsReporter{}
	_ scheduler.Reporter = &StoreReporter{}
	_ scheduler.Reporter = Multi{}
)

// LogReporter logs every rejection at debug level.
type LogReporter struct {
	FusionID string
}

func (r LogReporter) RecordRejection(heuristic scheduler.HeuristicType, reason string) {
	logrus.Debugf("%v", logutil.RejectionLogEntry{
		FusionID:  r.FusionID,
		Heuristic: heuristic.String(),
		Reason:    reason,
	})
}

type Record struct {
	Heuristic scheduler.HeuristicType
	Reason    string
}

// Collector keeps rejections in memory
type Collector struct {
	mu      sync.Mutex
	records []Record
}

func (c *Collector) RecordRejection(heuristic scheduler.HeuristicType, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, Record{Heuristic: heuristic, Reason: reason})
}

// Rejections returns a snapshot of the records in report order.
func (c *Collector) Rejections() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Record(nil), c.records...)
}

func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = nil
}

// MetricsReporter counts rejections per heuristic.
type MetricsReporter struct{}

func (MetricsReporter) RecordRejection(heuristic scheduler.HeuristicType, _ string) {
	prom.GetMonitor().RejectionTotal.WithLabelValues(heuristic.String()).Inc()
}

// StoreReporter persists rejections of one fusion. Write failures are logged
// and dropped.
type StoreReporter struct {
	store    *storage.Store
	fusionID string
}

func NewStoreReporter(store *storage.Store, fusionID string) *StoreReporter {
	return &StoreReporter{store: store, fusionID: fusionID}
}

func (r *StoreReporter) RecordRejection(heuristic scheduler.HeuristicType, reason string) {
	err := r.store.SaveRejections([]storage.RejectionRecord{{
		FusionID:  r.fusionID,
		Heuristic: heuristic.String(),
		Reason:    reason,
	}})
	if err != nil {
		logrus.Warnf("failed to save rejection of fusion %s by %s: %v", r.fusionID, heuristic, err)
	}
}

// Multi fans a rejection out to every reporter in order.
type Multi []scheduler.Reporter

func (m Multi) RecordRejection(heuristic scheduler.HeuristicType, reason string) {
	for _, r := range m {
		if r != nil {
			r.RecordRejection(heuristic, reason)
		}
	}
}
