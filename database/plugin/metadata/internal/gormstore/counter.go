// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package gormstore

import (
	"github.com/blinklabs-io/langjourney/database/models"
	"github.com/blinklabs-io/langjourney/database/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetNextId returns the identifier the next allocation will return
func (s *Store) GetNextId(name string, txn types.Txn) (uint64, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return 0, err
	}
	return nextId(db, name)
}

// AllocateId returns the next identifier for the named counter and advances
// it. Callers must run this inside the transaction that inserts the record.
func (s *Store) AllocateId(name string, txn types.Txn) (uint64, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return 0, err
	}
	id, err := nextId(db, name)
	if err != nil {
		return 0, err
	}
	tmpCounter := models.Counter{
		Name: name,
		Next: id + 1,
	}
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"next"}),
	}).Create(&tmpCounter)
	if result.Error != nil {
		return 0, result.Error
	}
	return id, nil
}

func nextId(db *gorm.DB, name string) (uint64, error) {
	var tmpCounter models.Counter
	result := db.Where("name = ?", name).Limit(1).Find(&tmpCounter)
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 1, nil
	}
	return tmpCounter.Next, nil
}
