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

// MintCertificate records completion of a path by from. The final score is a
// euint64 input.
//
// Unless the ledger was built with WithRequireApprovedSubmissions, minting
// does not look at the caller's submissions on the path.
func (l *Ledger) MintCertificate(
	ctx context.Context,
	from common.Address,
	pathID uint64,
	contentRef string,
	encryptedFinalScore handle.Handle,
	proof []byte,
) (uint64, error) {
	var cert *models.Certificate
	err := l.write(ctx, "mint certificate", func(txn *database.Txn) ([]event.Event, error) {
		if _, err := l.getPath(ctx, pathID, txn); err != nil {
			return nil, err
		}
		if l.requireApprovedSubmissions {
			if err := l.checkSubmissionsApproved(from, pathID, txn); err != nil {
				return nil, err
			}
		}
		if err := l.verifier.VerifyInput(
			ctx,
			encryptedFinalScore,
			proof,
			l.contractAddress,
			from,
			handle.TypeEUint64,
		); err != nil {
			return nil, err
		}
		id, err := l.db.AllocateId(models.CounterCertificate, txn)
		if err != nil {
			return nil, err
		}
		cert = &models.Certificate{
			ID:                  id,
			PathID:              pathID,
			Learner:             from.Bytes(),
			ContentRef:          contentRef,
			EncryptedFinalScore: encryptedFinalScore.Bytes(),
			MintedAt:            l.now().Unix(),
		}
		if err := l.db.AddCertificate(cert, txn); err != nil {
			return nil, err
		}
		if err := l.grant(txn, encryptedFinalScore, from); err != nil {
			return nil, err
		}
		return []event.Event{
			event.NewEvent(
				event.CertificateMintedEventType,
				event.CertificateMintedEvent{
					CertificateID: id,
					PathID:        pathID,
					Learner:       from,
					ContentRef:    contentRef,
					MintedAt:      unixTime(cert.MintedAt),
				},
			),
		}, nil
	})
	if err != nil {
		return 0, err
	}
	l.metrics.certificatesMinted.Inc()
	l.logger.Info(
		"certificate minted",
		"component", "ledger",
		"certificate_id", cert.ID,
		"path_id", pathID,
		"learner", from.Hex(),
	)
	return cert.ID, nil
}

func (l *Ledger) checkSubmissionsApproved(
	learner common.Address,
	pathID uint64,
	txn *database.Txn,
) error {
	subs, err := l.db.GetSubmissions(
		models.SubmissionFilter{PathID: pathID, Learner: learner.Bytes()},
		txn,
	)
	if err != nil {
		return err
	}
	if len(subs) == 0 {
		return fmt.Errorf("%w: no submissions on path %d", ErrIncompleteSubmissions, pathID)
	}
	for _, sub := range subs {
		if sub.Status != StatusApproved {
			return fmt.Errorf(
				"%w: submission %d is %s",
				ErrIncompleteSubmissions,
				sub.ID,
				sub.Status,
			)
		}
	}
	return nil
}

func (l *Ledger) GetCertificate(
	ctx context.Context,
	id uint64,
) (*Certificate, error) {
	m, err := l.getCertificate(ctx, id)
	if err != nil {
		return nil, err
	}
	return certificateFromModel(m), nil
}

func (l *Ledger) GetCertificateEncryptedScore(
	ctx context.Context,
	id uint64,
) (handle.Handle, error) {
	m, err := l.getCertificate(ctx, id)
	if err != nil {
		return handle.Handle{}, err
	}
	return handleFromBytes(m.EncryptedFinalScore), nil
}

func (l *Ledger) NextCertificateID(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return l.db.NextId(models.CounterCertificate, nil)
}

// ListCertificates returns the certificates held by learner, or every
// certificate when learner is the zero address
func (l *Ledger) ListCertificates(
	ctx context.Context,
	learner common.Address,
) ([]*Certificate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var learnerBytes []byte
	if learner != (common.Address{}) {
		learnerBytes = learner.Bytes()
	}
	certs, err := l.db.GetCertificates(learnerBytes, nil)
	if err != nil {
		return nil, err
	}
	ret := make([]*Certificate, 0, len(certs))
	for i := range certs {
		ret = append(ret, certificateFromModel(&certs[i]))
	}
	return ret, nil
}

func (l *Ledger) getCertificate(
	ctx context.Context,
	id uint64,
) (*models.Certificate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cert, err := l.db.GetCertificate(id, nil)
	if err != nil {
		return nil, err
	}
	if cert == nil {
		return nil, notFound(KindCertificate, id)
	}
	return cert, nil
}
