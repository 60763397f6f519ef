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
	"gorm.io/gorm/clause"
)

// AddHandleGrants records decrypt permissions. Existing grants are left as is.
func (s *Store) AddHandleGrants(
	grants []models.HandleGrant,
	txn types.Txn,
) error {
	if len(grants) == 0 {
		return nil
	}
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	result := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&grants)
	if result.Error != nil {
		return result.Error
	}
	return nil
}

// HasHandleGrant reports whether the account may decrypt the handle
func (s *Store) HasHandleGrant(
	handle []byte,
	account []byte,
	txn types.Txn,
) (bool, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return false, err
	}
	var count int64
	result := db.Model(&models.HandleGrant{}).
		Where("handle = ? AND account = ?", handle, account).
		Count(&count)
	if result.Error != nil {
		return false, result.Error
	}
	return count > 0, nil
}

// GetHandleGrants returns the accounts permitted to decrypt the handle
func (s *Store) GetHandleGrants(
	handle []byte,
	txn types.Txn,
) ([]models.HandleGrant, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret []models.HandleGrant
	result := db.Where("handle = ?", handle).Order("id asc").Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}
