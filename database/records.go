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

package database

import (
	"github.com/blinklabs-io/langjourney/database/models"
	"github.com/blinklabs-io/langjourney/database/types"
)

func metadataTxn(txn *Txn) types.Txn {
	if txn == nil {
		return nil
	}
	return txn.Metadata()
}

// NextId returns the identifier the named counter hands out next
func (d *Database) NextId(name string, txn *Txn) (uint64, error) {
	return d.metadata.GetNextId(name, metadataTxn(txn))
}

// AllocateId consumes and returns the next identifier of the named counter
func (d *Database) AllocateId(name string, txn *Txn) (uint64, error) {
	return d.metadata.AllocateId(name, metadataTxn(txn))
}

func (d *Database) GetPath(id uint64, txn *Txn) (*models.Path, error) {
	return d.metadata.GetPath(id, metadataTxn(txn))
}

func (d *Database) GetPaths(txn *Txn) ([]models.Path, error) {
	return d.metadata.GetPaths(metadataTxn(txn))
}

func (d *Database) AddPath(path *models.Path, txn *Txn) error {
	return d.metadata.AddPath(path, metadataTxn(txn))
}

func (d *Database) SetPathActive(id uint64, active bool, txn *Txn) error {
	return d.metadata.SetPathActive(id, active, metadataTxn(txn))
}

func (d *Database) GetSubmission(
	id uint64,
	txn *Txn,
) (*models.Submission, error) {
	return d.metadata.GetSubmission(id, metadataTxn(txn))
}

func (d *Database) GetSubmissions(
	filter models.SubmissionFilter,
	txn *Txn,
) ([]models.Submission, error) {
	return d.metadata.GetSubmissions(filter, metadataTxn(txn))
}

func (d *Database) AddSubmission(
	submission *models.Submission,
	txn *Txn,
) error {
	return d.metadata.AddSubmission(submission, metadataTxn(txn))
}

// SetSubmissionReview stores the outcome of a review. It reports false when
// the submission had already left the pending state.
func (d *Database) SetSubmissionReview(
	id uint64,
	status models.SubmissionStatus,
	verifier []byte,
	encryptedScore []byte,
	reviewedAt int64,
	txn *Txn,
) (bool, error) {
	return d.metadata.SetSubmissionReview(
		id,
		status,
		verifier,
		encryptedScore,
		reviewedAt,
		metadataTxn(txn),
	)
}

func (d *Database) GetCertificate(
	id uint64,
	txn *Txn,
) (*models.Certificate, error) {
	return d.metadata.GetCertificate(id, metadataTxn(txn))
}

// GetCertificates returns the certificates of a learner, or all of them when
// learner is empty
func (d *Database) GetCertificates(
	learner []byte,
	txn *Txn,
) ([]models.Certificate, error) {
	return d.metadata.GetCertificates(learner, metadataTxn(txn))
}

func (d *Database) AddCertificate(
	certificate *models.Certificate,
	txn *Txn,
) error {
	return d.metadata.AddCertificate(certificate, metadataTxn(txn))
}

func (d *Database) GetTeacher(
	address []byte,
	txn *Txn,
) (*models.Teacher, error) {
	return d.metadata.GetTeacher(address, metadataTxn(txn))
}

func (d *Database) GetTeachers(
	authorizedOnly bool,
	txn *Txn,
) ([]models.Teacher, error) {
	return d.metadata.GetTeachers(authorizedOnly, metadataTxn(txn))
}

func (d *Database) SetTeacher(teacher *models.Teacher, txn *Txn) error {
	return d.metadata.SetTeacher(teacher, metadataTxn(txn))
}

// GrantHandle permits each account to decrypt the handle
func (d *Database) GrantHandle(
	handle []byte,
	accounts [][]byte,
	txn *Txn,
) error {
	grants := make([]models.HandleGrant, 0, len(accounts))
	for _, account := range accounts {
		grants = append(
			grants,
			models.HandleGrant{Handle: handle, Account: account},
		)
	}
	return d.metadata.AddHandleGrants(grants, metadataTxn(txn))
}

func (d *Database) HasHandleGrant(
	handle []byte,
	account []byte,
	txn *Txn,
) (bool, error) {
	return d.metadata.HasHandleGrant(handle, account, metadataTxn(txn))
}

func (d *Database) GetHandleGrants(
	handle []byte,
	txn *Txn,
) ([]models.HandleGrant, error) {
	return d.metadata.GetHandleGrants(handle, metadataTxn(txn))
}
