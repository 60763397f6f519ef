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

package metadata

import (
	"errors"
	"fmt"

	"github.com/blinklabs-io/langjourney/database/models"
	"github.com/blinklabs-io/langjourney/database/plugin"
	_ "github.com/blinklabs-io/langjourney/database/plugin/metadata/mysql"
	_ "github.com/blinklabs-io/langjourney/database/plugin/metadata/postgres"
	_ "github.com/blinklabs-io/langjourney/database/plugin/metadata/sqlite"
	"github.com/blinklabs-io/langjourney/database/types"
	"gorm.io/gorm"
)

const DefaultPluginName = "sqlite"

type MetadataStore interface {
	// Database
	Close() error
	DB() *gorm.DB
	GetCommitTimestamp() (int64, error)
	SetCommitTimestamp(int64, types.Txn) error
	Transaction() types.Txn

	// Identifiers
	GetNextId(string, types.Txn) (uint64, error)
	AllocateId(string, types.Txn) (uint64, error)

	// Paths
	GetPath(uint64, types.Txn) (*models.Path, error)
	GetPaths(types.Txn) ([]models.Path, error)
	AddPath(*models.Path, types.Txn) error
	SetPathActive(uint64, bool, types.Txn) error

	// Submissions
	GetSubmission(uint64, types.Txn) (*models.Submission, error)
	GetSubmissions(models.SubmissionFilter, types.Txn) ([]models.Submission, error)
	AddSubmission(*models.Submission, types.Txn) error
	SetSubmissionReview(
		uint64, // id
		models.SubmissionStatus,
		[]byte, // verifier
		[]byte, // encryptedScore
		int64, // reviewedAt
		types.Txn,
	) (bool, error)

	// Certificates
	GetCertificate(uint64, types.Txn) (*models.Certificate, error)
	GetCertificates([]byte, types.Txn) ([]models.Certificate, error)
	AddCertificate(*models.Certificate, types.Txn) error

	// Teachers
	GetTeacher([]byte, types.Txn) (*models.Teacher, error)
	GetTeachers(bool, types.Txn) ([]models.Teacher, error)
	SetTeacher(*models.Teacher, types.Txn) error

	// Decrypt permissions
	AddHandleGrants([]models.HandleGrant, types.Txn) error
	HasHandleGrant([]byte, []byte, types.Txn) (bool, error)
	GetHandleGrants([]byte, types.Txn) ([]models.HandleGrant, error)
}

// New creates and starts the named metadata plugin
func New(pluginName string, opts plugin.Options) (MetadataStore, error) {
	if pluginName == "" {
		pluginName = DefaultPluginName
	}
	p, err := plugin.StartPlugin(plugin.PluginTypeMetadata, pluginName, opts)
	if err != nil {
		return nil, err
	}
	store, ok := p.(MetadataStore)
	if !ok {
		return nil, errors.Join(
			fmt.Errorf("plugin '%s' is not a metadata store", pluginName),
			p.Stop(),
		)
	}
	return store, nil
}
