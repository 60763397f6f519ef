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

// Teacher is an authorization registry entry. A missing row means the
// address is not authorized.
type Teacher struct {
	Address    []byte `gorm:"primarykey;size:20"`
	ChangedAt  int64  `gorm:"not null"`
	Authorized bool   `gorm:"index;not null"`
}

func (Teacher) TableName() string {
	return "teacher"
}
