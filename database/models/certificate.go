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

// Certificate is an immutable record of path completion
type Certificate struct {
	ContentRef          string `gorm:"not null"`
	Learner             []byte `gorm:"index;not null;size:20"`
	EncryptedFinalScore []byte `gorm:"not null;size:32"`
	ID                  uint64 `gorm:"primarykey;autoIncrement:false"`
	PathID              uint64 `gorm:"index;not null"`
	MintedAt            int64  `gorm:"not null"`
}

func (Certificate) TableName() string {
	return "certificate"
}
