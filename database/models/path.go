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

type Path struct {
	ContentRef         string `gorm:"not null"`
	Creator            []byte `gorm:"index;not null;size:20"`
	EncryptedTaskCount []byte `gorm:"not null;size:32"`
	ID                 uint64 `gorm:"primarykey;autoIncrement:false"`
	CreatedAt          int64  `gorm:"not null;autoCreateTime:false"`
	Active             bool   `gorm:"not null"`
}

func (Path) TableName() string {
	return "path"
}
