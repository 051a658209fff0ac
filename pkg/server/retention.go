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

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/sirupsen/logrus"

	"github.com/secretflow/fuser/pkg/config"
	"github.com/secretflow/fuser/pkg/storage"
)

const clearExpiredJobName = "clear_expired_records"

// RetentionWorker periodically deletes stored decisions and rejections
// older than the retention time.
type RetentionWorker struct {
	store         *storage.Store
	conf          config.RetentionConf
	taskScheduler gocron.Scheduler
}

func NewRetentionWorker(store *storage.Store, conf config.RetentionConf) (*RetentionWorker, error) {
	if conf.Time <= 0 || conf.Interval <= 0 {
		return nil, fmt.Errorf("invalid retention time %v or interval %v", conf.Time, conf.Interval)
	}
	w := &RetentionWorker{store: store, conf: conf}
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("fail to create scheduler: %v", err)
	}
	_, err = s.NewJob(
		gocron.DurationJob(conf.Interval),
		gocron.NewTask(w.ClearExpired),
		gocron.WithName(clearExpiredJobName),
	)
	if err != nil {
		return nil, fmt.Errorf("fail to schedule: %v", err)
	}
	w.taskScheduler = s
	return w, nil
}

func (w *RetentionWorker) Start() {
	logrus.Infof("start retention worker, keep records for %v, check every %v", w.conf.Time, w.conf.Interval)
	w.taskScheduler.Start()
}

func (w *RetentionWorker) Stop() error {
	return w.taskScheduler.Shutdown()
}

// ClearExpired runs one pruning pass.
func (w *RetentionWorker) ClearExpired() {
	deleted, err := w.store.ClearExpiredRecords(time.Now().Add(-w.conf.Time))
	if err != nil {
		logrus.Warnf("%s: %v", clearExpiredJobName, err)
		return
	}
	if deleted > 0 {
		logrus.Infof("%s: deleted %d records", clearExpiredJobName, deleted)
	}
}
