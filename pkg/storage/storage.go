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
	"fmt"
	"reflect"
	"time"

	"gorm.io/gorm"
)

const InsertBatchSize = 1000

var allTables = []interface{}{&DecisionRecord{}, &RejectionRecord{}}

var ErrRecordNotFound = gorm.ErrRecordNotFound

// Store persists scheduling decisions and rejections for diagnostics.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// NeedBootstrap checks if the store is empty
func (s *Store) NeedBootstrap() bool {
	for _, tn := range allTables {
		if s.db.Migrator().HasTable(tn) {
			return false
		}
	}
	return true
}

// Bootstrap init db
func (s *Store) Bootstrap() error {
	return s.db.AutoMigrate(allTables...)
}

// drop db for tests
func (s *Store) DropTables() error {
	return s.db.Migrator().DropTable(allTables...)
}

// CheckStorage verifies storage is valid
func CheckStorage(db *gorm.DB) error {
	for _, tn := range allTables {
		if !db.Migrator().HasTable(tn) {
			return fmt.Errorf("table %s is missing in storage", reflect.TypeOf(tn).String())
		}
	}
	return nil
}

func (s *Store) SaveDecision(rec *DecisionRecord) error {
	return s.db.Create(rec).Error
}

// GetDecision returns the latest decision stored for fusionID.
func (s *Store) GetDecision(fusionID string) (DecisionRecord, error) {
	rec := DecisionRecord{}
	result := s.db.Model(&DecisionRecord{}).Where(&DecisionRecord{FusionID: fusionID}).Order("id desc").First(&rec)
	return rec, result.Error
}

func (s *Store) SaveRejections(recs []RejectionRecord) error {
	if len(recs) == 0 {
		return nil
	}
	return s.db.CreateInBatches(&recs, InsertBatchSize).Error
}

// ListRejections returns rejections in the order they were reported;
// an empty fusionID lists all of them.
func (s *Store) ListRejections(fusionID string) ([]RejectionRecord, error) {
	var recs []RejectionRecord
	result := s.db.Model(&RejectionRecord{})
	if fusionID != "" {
		result = result.Where(&RejectionRecord{FusionID: fusionID})
	}
	result = result.Order("id").Find(&recs)
	return recs, result.Error
}

// ClearExpiredRecords deletes records created before deadline and returns
// how many were removed.
func (s *Store) ClearExpiredRecords(deadline time.Time) (int64, error) {
	var deleted int64
	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, tn := range allTables {
			result := tx.Where("created_at < ?", deadline).Delete(tn)
			if result.Error != nil {
				return result.Error
			}
			deleted += result.RowsAffected
		}
		return nil
	})
	return deleted, err
}
