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
	"github.com/secretflow/fuser/pkg/config"
	"github.com/secretflow/fuser/pkg/scheduler"
	"github.com/secretflow/fuser/pkg/storage"
)

// App holds what the HTTP handlers share. Store may be nil, then nothing
// is persisted.
type App struct {
	Conf     *config.Config
	Registry *scheduler.Registry
	Store    *storage.Store
}

func NewApp(conf *config.Config, store *storage.Store) (*App, error) {
	opts, err := conf.SchedulerOptions()
	if err != nil {
		return nil, err
	}
	registry := scheduler.NewRegistry(opts, nil)
	registry.SetCacheExpiration(conf.Scheduler.CacheExpireTime, conf.Scheduler.CacheCleanInterval)
	return &App{
		Conf:     conf,
		Registry: registry,
		Store:    store,
	}, nil
}
