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
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/secretflow/fuser/pkg/config"
	"github.com/secretflow/fuser/pkg/storage"
)

func TestRetentionWorker(t *testing.T) {
	r := require.New(t)
	id, err := uuid.NewUUID()
	r.NoError(err)
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", id)), &gorm.Config{SkipDefaultTransaction: true})
	r.NoError(err)
	store := storage.NewStore(db)
	r.NoError(store.Bootstrap())

	_, err = NewRetentionWorker(store, config.RetentionConf{})
	r.Error(err)

	w, err := NewRetentionWorker(store, config.RetentionConf{Time: time.Hour, Interval: time.Hour})
	r.NoError(err)
	w.Start()
	defer func() {
		r.NoError(w.Stop())
	}()

	r.NoError(store.SaveRejections([]storage.RejectionRecord{
		{FusionID: "a", Heuristic: "no_op", Reason: "expired", CreatedAt: time.Now().Add(-2 * time.Hour)},
		{FusionID: "a", Heuristic: "pointwise", Reason: "fresh"},
	}))
	w.ClearExpired()

	recs, err := store.ListRejections("a")
	r.NoError(err)
	r.Len(recs, 1)
	r.Equal("fresh", recs[0].Reason)
}
