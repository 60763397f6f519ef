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

package ledger

import (
	"context"
	"fmt"

	"github.com/blinklabs-io/langjourney/database"
	"github.com/blinklabs-io/langjourney/database/models"
	"github.com/blinklabs-io/langjourney/event"
	"github.com/ethereum/go-ethereum/common"
)

// SetTeacherAuthorization grants or revokes the teacher capability. Only the
// owner may call it. Setting the current value again is a no-op.
func (l *Ledger) SetTeacherAuthorization(
	ctx context.Context,
	from common.Address,
	teacher common.Address,
	authorized bool,
) error {
	changed := false
	err := l.write(ctx, "set teacher authorization", func(txn *database.Txn) ([]event.Event, error) {
		if from != l.owner {
			return nil, fmt.Errorf("%w: %s is not the owner", ErrUnauthorized, from.Hex())
		}
		current, err := l.isAuthorizedTeacher(teacher, txn)
		if err != nil {
			return nil, err
		}
		if current == authorized {
			return nil, nil
		}
		if err := l.db.SetTeacher(&models.Teacher{
			Address:    teacher.Bytes(),
			Authorized: authorized,
			ChangedAt:  l.now().Unix(),
		}, txn); err != nil {
			return nil, err
		}
		changed = true
		return []event.Event{
			event.NewEvent(
				event.TeacherAuthorizationChangedEventType,
				event.TeacherAuthorizationChangedEvent{
					Teacher:    teacher,
					Authorized: authorized,
				},
			),
		}, nil
	})
	if err != nil {
		return err
	}
	if changed {
		l.metrics.teacherAuthorizationChanges.Inc()
		l.logger.Info(
			"teacher authorization changed",
			"component", "ledger",
			"teacher", teacher.Hex(),
			"authorized", authorized,
		)
	}
	return nil
}

// IsAuthorizedTeacher reports whether addr holds the teacher capability.
// Unknown addresses are not authorized.
func (l *Ledger) IsAuthorizedTeacher(
	ctx context.Context,
	addr common.Address,
) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return l.isAuthorizedTeacher(addr, nil)
}

// ListTeachers returns the currently authorized teachers
func (l *Ledger) ListTeachers(ctx context.Context) ([]*Teacher, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	teachers, err := l.db.GetTeachers(true, nil)
	if err != nil {
		return nil, err
	}
	ret := make([]*Teacher, 0, len(teachers))
	for i := range teachers {
		ret = append(ret, teacherFromModel(&teachers[i]))
	}
	return ret, nil
}

func (l *Ledger) isAuthorizedTeacher(
	addr common.Address,
	txn *database.Txn,
) (bool, error) {
	teacher, err := l.db.GetTeacher(addr.Bytes(), txn)
	if err != nil {
		return false, err
	}
	return teacher != nil && teacher.Authorized, nil
}
