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

// GetSubmission returns a submission by id, or nil if it doesn't exist
func (s *Store) GetSubmission(
	id uint64,
	txn types.Txn,
) (*models.Submission, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := &models.Submission{}
	result := db.First(ret, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return ret, nil
}

// GetSubmissions returns the submissions matching the filter in id order
func (s *Store) GetSubmissions(
	filter models.SubmissionFilter,
	txn types.Txn,
) ([]models.Submission, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	query := db.Model(&models.Submission{})
	if filter.PathID > 0 {
		query = query.Where("path_id = ?", filter.PathID)
	}
	if len(filter.Learner) > 0 {
		query = query.Where("learner = ?", filter.Learner)
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]int, 0, len(filter.Statuses))
		for _, status := range filter.Statuses {
			statuses = append(statuses, int(status))
		}
		query = query.Where("status IN ?", statuses)
	}
	var ret []models.Submission
	if result := query.Order("id asc").Find(&ret); result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// AddSubmission inserts a new submission
func (s *Store) AddSubmission(
	submission *models.Submission,
	txn types.Txn,
) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	if result := db.Create(submission); result.Error != nil {
		return result.Error
	}
	return nil
}

// SetSubmissionReview records the review of a pending submission. It
// reports false when the submission was no longer pending.
func (s *Store) SetSubmissionReview(
	id uint64,
	status models.SubmissionStatus,
	verifier []byte,
	encryptedScore []byte,
	reviewedAt int64,
	txn types.Txn,
) (bool, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return false, err
	}
	result := db.Model(&models.Submission{}).
		Where("id = ? AND status = ?", id, models.SubmissionStatusPending).
		Updates(map[string]any{
			"status":          status,
			"verifier":        verifier,
			"encrypted_score": encryptedScore,
			"reviewed_at":     reviewedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
