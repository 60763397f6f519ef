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
	"errors"

	"github.com/blinklabs-io/langjourney/database/models"
	"github.com/blinklabs-io/langjourney/database/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetTeacher returns the authorization entry for an address, or nil if none
// has been recorded
func (s *Store) GetTeacher(
	address []byte,
	txn types.Txn,
) (*models.Teacher, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := &models.Teacher{}
	result := db.First(ret, "address = ?", address)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return ret, nil
}

// GetTeachers returns recorded authorization entries
func (s *Store) GetTeachers(
	authorizedOnly bool,
	txn types.Txn,
) ([]models.Teacher, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	query := db.Model(&models.Teacher{})
	if authorizedOnly {
		query = query.Where("authorized = ?", true)
	}
	var ret []models.Teacher
	if result := query.Order("changed_at asc").Find(&ret); result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// SetTeacher saves an authorization entry, or updates it if it already exists
func (s *Store) SetTeacher(teacher *models.Teacher, txn types.Txn) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	onConflict := clause.OnConflict{
		Columns: []clause.Column{{Name: "address"}},
		DoUpdates: clause.AssignmentColumns(
			[]string{"authorized", "changed_at"},
		),
	}
	if result := db.Clauses(onConflict).Create(teacher); result.Error != nil {
		return result.Error
	}
	return nil
}
