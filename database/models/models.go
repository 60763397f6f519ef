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

package models

// MigrateModels contains a list of model objects that should have DB migrations applied
var MigrateModels = []any{
	&Certificate{},
	&Counter{},
	&HandleGrant{},
	&Path{},
	&Submission{},
	&Teacher{},
}

// Counter names used for identifier allocation
const (
	CounterPath        = "path"
	CounterSubmission  = "submission"
	CounterCertificate = "certificate"
)

// Counter holds the next identifier for a registry. Identifiers start at 1
// and are never reused.
type Counter struct {
	Name string `gorm:"primarykey;size:32"`
	Next uint64 `gorm:"not null"`
}

func (Counter) TableName() string {
	return "counter"
}

// HandleGrant records that an account may decrypt a handle
type HandleGrant struct {
	Handle  []byte `gorm:"uniqueIndex:idx_handle_grant;not null;size:32"`
	Account []byte `gorm:"uniqueIndex:idx_handle_grant;index;not null;size:20"`
	ID      uint   `gorm:"primarykey"`
}

func (HandleGrant) TableName() string {
	return "handle_grant"
}
