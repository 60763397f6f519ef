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
	"github.com/blinklabs-io/langjourney/handle"
	"github.com/ethereum/go-ethereum/common"
)

// SubmitTask records a learner's claimed completion of a task. The
// self-reported score stays in place until a teacher reviews it.
func (l *Ledger) SubmitTask(
	ctx context.Context,
	from common.Address,
	pathID uint64,
	taskID uint64,
	contentRef string,
	encryptedScore handle.Handle,
	proof []byte,
) (uint64, error) {
	var sub *models.Submission
	err := l.write(ctx, "submit task", func(txn *database.Txn) ([]event.Event, error) {
		path, err := l.getPath(ctx, pathID, txn)
		if err != nil {
			return nil, err
		}
		if !path.Active {
			return nil, fmt.Errorf("%w: path %d", ErrInactivePath, pathID)
		}
		if err := l.checkTaskID(taskID); err != nil {
			return nil, err
		}
		if err := l.verifier.VerifyInput(
			ctx,
			encryptedScore,
			proof,
			l.contractAddress,
			from,
			handle.TypeEUint32,
		); err != nil {
			return nil, err
		}
		id, err := l.db.AllocateId(models.CounterSubmission, txn)
		if err != nil {
			return nil, err
		}
		sub = &models.Submission{
			ID:             id,
			PathID:         pathID,
			TaskID:         taskID,
			Learner:        from.Bytes(),
			ContentRef:     contentRef,
			EncryptedScore: encryptedScore.Bytes(),
			Status:         StatusPending,
			SubmittedAt:    l.now().Unix(),
		}
		if err := l.db.AddSubmission(sub, txn); err != nil {
			return nil, err
		}
		if err := l.grant(txn, encryptedScore, from); err != nil {
			return nil, err
		}
		return []event.Event{
			event.NewEvent(
				event.SubmissionCreatedEventType,
				event.SubmissionCreatedEvent{
					SubmissionID: id,
					PathID:       pathID,
					TaskID:       taskID,
					Learner:      from,
					ContentRef:   contentRef,
					SubmittedAt:  unixTime(sub.SubmittedAt),
				},
			),
		}, nil
	})
	if err != nil {
		return 0, err
	}
	l.metrics.submissionsCreated.Inc()
	l.logger.Info(
		"task submitted",
		"component", "ledger",
		"submission_id", sub.ID,
		"path_id", pathID,
		"task_id", taskID,
		"learner", from.Hex(),
	)
	return sub.ID, nil
}

// VerifySubmission records a teacher's review. The decision must be
// StatusApproved or StatusRejected, and the revised score replaces the
// learner's self-reported one. A submission is reviewed at most once.
func (l *Ledger) VerifySubmission(
	ctx context.Context,
	from common.Address,
	id uint64,
	decision Status,
	revisedScore handle.Handle,
	proof []byte,
) error {
	var sub *models.Submission
	err := l.write(ctx, "verify submission", func(txn *database.Txn) ([]event.Event, error) {
		var err error
		sub, err = l.getSubmission(ctx, id, txn)
		if err != nil {
			return nil, err
		}
		authorized, err := l.isAuthorizedTeacher(from, txn)
		if err != nil {
			return nil, err
		}
		if !authorized {
			return nil, fmt.Errorf(
				"%w: %s is not an authorized teacher",
				ErrUnauthorized,
				from.Hex(),
			)
		}
		if sub.Status != StatusPending {
			return nil, fmt.Errorf(
				"%w: submission %d is %s",
				ErrAlreadyReviewed,
				id,
				sub.Status,
			)
		}
		if !decision.IsTerminal() {
			return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, decision)
		}
		if err := l.verifier.VerifyInput(
			ctx,
			revisedScore,
			proof,
			l.contractAddress,
			from,
			handle.TypeEUint32,
		); err != nil {
			return nil, err
		}
		reviewedAt := l.now().Unix()
		updated, err := l.db.SetSubmissionReview(
			id,
			decision,
			from.Bytes(),
			revisedScore.Bytes(),
			reviewedAt,
			txn,
		)
		if err != nil {
			return nil, err
		}
		if !updated {
			return nil, fmt.Errorf("%w: submission %d", ErrAlreadyReviewed, id)
		}
		if err := l.grant(
			txn,
			revisedScore,
			common.BytesToAddress(sub.Learner),
			from,
		); err != nil {
			return nil, err
		}
		return []event.Event{
			event.NewEvent(
				event.SubmissionVerifiedEventType,
				event.SubmissionVerifiedEvent{
					SubmissionID: id,
					PathID:       sub.PathID,
					Learner:      common.BytesToAddress(sub.Learner),
					Verifier:     from,
					Status:       uint8(decision),
					ReviewedAt:   unixTime(reviewedAt),
				},
			),
		}, nil
	})
	if err != nil {
		return err
	}
	l.metrics.submissionsReviewed.WithLabelValues(decision.String()).Inc()
	l.logger.Info(
		"submission reviewed",
		"component", "ledger",
		"submission_id", id,
		"status", decision.String(),
		"verifier", from.Hex(),
	)
	return nil
}

func (l *Ledger) GetSubmission(
	ctx context.Context,
	id uint64,
) (*Submission, error) {
	m, err := l.getSubmission(ctx, id, nil)
	if err != nil {
		return nil, err
	}
	return submissionFromModel(m), nil
}

// GetSubmissionEncryptedScore returns the current score handle: the
// learner's until review, the teacher's after
func (l *Ledger) GetSubmissionEncryptedScore(
	ctx context.Context,
	id uint64,
) (handle.Handle, error) {
	m, err := l.getSubmission(ctx, id, nil)
	if err != nil {
		return handle.Handle{}, err
	}
	return handleFromBytes(m.EncryptedScore), nil
}

func (l *Ledger) NextSubmissionID(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return l.db.NextId(models.CounterSubmission, nil)
}

// ListSubmissions returns the submissions matching filter in id order
func (l *Ledger) ListSubmissions(
	ctx context.Context,
	filter SubmissionFilter,
) ([]*Submission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	mf := models.SubmissionFilter{
		PathID:   filter.PathID,
		Statuses: filter.Statuses,
	}
	if filter.Learner != nil {
		mf.Learner = filter.Learner.Bytes()
	}
	subs, err := l.db.GetSubmissions(mf, nil)
	if err != nil {
		return nil, err
	}
	ret := make([]*Submission, 0, len(subs))
	for i := range subs {
		ret = append(ret, submissionFromModel(&subs[i]))
	}
	return ret, nil
}

func (l *Ledger) getSubmission(
	ctx context.Context,
	id uint64,
	txn *database.Txn,
) (*models.Submission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sub, err := l.db.GetSubmission(id, txn)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, notFound(KindSubmission, id)
	}
	return sub, nil
}

func (l *Ledger) checkTaskID(taskID uint64) error {
	if taskID == 0 {
		return fmt.Errorf("%w: task id must be positive", ErrTaskOutOfRange)
	}
	if l.maxTaskID > 0 && taskID > l.maxTaskID {
		return fmt.Errorf(
			"%w: task id %d exceeds %d",
			ErrTaskOutOfRange,
			taskID,
			l.maxTaskID,
		)
	}
	return nil
}
