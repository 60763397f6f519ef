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
)

// GetCertificate returns a certificate by id, or nil if it doesn't exist
func (s *Store) GetCertificate(
	id uint64,
	txn types.Txn,
) (*models.Certificate, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := &models.Certificate{}
	result := db.First(ret, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return ret, nil
}

// GetCertificates returns certificates in id order, optionally limited to a
// single learner
func (s *Store) GetCertificates(
	learner []byte,
	txn types.Txn,
) ([]models.Certificate, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	query := db.Model(&models.Certificate{})
	if len(learner) > 0 {
		query = query.Where("learner = ?", learner)
	}
	var ret []models.Certificate
	if result := query.Order("id asc").Find(&ret); result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// AddCertificate inserts a new certificate
func (s *Store) AddCertificate(
	cert *models.Certificate,
	txn types.Txn,
) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	if result := db.Create(cert); result.Error != nil {
		return result.Error
	}
	return nil
}
