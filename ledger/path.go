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

	"github.com/blinklabs-io/langjourney/database"
	"github.com/blinklabs-io/langjourney/database/models"
	"github.com/blinklabs-io/langjourney/event"
	"github.com/blinklabs-io/langjourney/handle"
	"github.com/ethereum/go-ethereum/common"
)

// CreatePath registers a new path owned by from. The encrypted task count
// must be a euint32 input bound to the ledger contract and from.
func (l *Ledger) CreatePath(
	ctx context.Context,
	from common.Address,
	contentRef string,
	encryptedTaskCount handle.Handle,
	proof []byte,
) (uint64, error) {
	var path *models.Path
	err := l.write(ctx, "create path", func(txn *database.Txn) ([]event.Event, error) {
		if err := l.verifier.VerifyInput(
			ctx,
			encryptedTaskCount,
			proof,
			l.contractAddress,
			from,
			handle.TypeEUint32,
		); err != nil {
			return nil, err
		}
		id, err := l.db.AllocateId(models.CounterPath, txn)
		if err != nil {
			return nil, err
		}
		path = &models.Path{
			ID:                 id,
			Creator:            from.Bytes(),
			ContentRef:         contentRef,
			EncryptedTaskCount: encryptedTaskCount.Bytes(),
			Active:             true,
			CreatedAt:          l.now().Unix(),
		}
		if err := l.db.AddPath(path, txn); err != nil {
			return nil, err
		}
		if err := l.grant(txn, encryptedTaskCount, from); err != nil {
			return nil, err
		}
		return []event.Event{
			event.NewEvent(
				event.PathCreatedEventType,
				event.PathCreatedEvent{
					PathID:     id,
					Creator:    from,
					ContentRef: contentRef,
					CreatedAt:  unixTime(path.CreatedAt),
				},
			),
		}, nil
	})
	if err != nil {
		return 0, err
	}
	l.metrics.pathsCreated.Inc()
	l.logger.Info(
		"path created",
		"component", "ledger",
		"path_id", path.ID,
		"creator", from.Hex(),
	)
	return path.ID, nil
}

// GetPath returns the public fields of a path
func (l *Ledger) GetPath(ctx context.Context, id uint64) (*Path, error) {
	m, err := l.getPath(ctx, id, nil)
	if err != nil {
		return nil, err
	}
	return pathFromModel(m), nil
}

// GetEncryptedTaskCount returns the task count handle of a path. Anyone may
// read the handle. Only accounts holding a grant can decrypt it.
func (l *Ledger) GetEncryptedTaskCount(
	ctx context.Context,
	id uint64,
) (handle.Handle, error) {
	m, err := l.getPath(ctx, id, nil)
	if err != nil {
		return handle.Handle{}, err
	}
	return handleFromBytes(m.EncryptedTaskCount), nil
}

// SetPathActive opens or closes a path for new submissions. Only the path
// creator and the owner may change it.
func (l *Ledger) SetPathActive(
	ctx context.Context,
	from common.Address,
	id uint64,
	active bool,
) error {
	changed := false
	err := l.write(ctx, "set path status", func(txn *database.Txn) ([]event.Event, error) {
		path, err := l.getPath(ctx, id, txn)
		if err != nil {
			return nil, err
		}
		if from != l.owner && from != common.BytesToAddress(path.Creator) {
			return nil, ErrUnauthorized
		}
		if path.Active == active {
			return nil, nil
		}
		if err := l.db.SetPathActive(id, active, txn); err != nil {
			return nil, err
		}
		changed = true
		return []event.Event{
			event.NewEvent(
				event.PathStatusChangedEventType,
				event.PathStatusChangedEvent{PathID: id, Active: active},
			),
		}, nil
	})
	if err != nil {
		return err
	}
	if changed {
		l.logger.Info(
			"path status changed",
			"component", "ledger",
			"path_id", id,
			"active", active,
		)
	}
	return nil
}

func (l *Ledger) NextPathID(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return l.db.NextId(models.CounterPath, nil)
}

// ListPaths returns every path in id order
func (l *Ledger) ListPaths(ctx context.Context) ([]*Path, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	paths, err := l.db.GetPaths(nil)
	if err != nil {
		return nil, err
	}
	ret := make([]*Path, 0, len(paths))
	for i := range paths {
		ret = append(ret, pathFromModel(&paths[i]))
	}
	return ret, nil
}

func (l *Ledger) getPath(
	ctx context.Context,
	id uint64,
	txn *database.Txn,
) (*models.Path, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := l.db.GetPath(id, txn)
	if err != nil {
		return nil, err
	}
	if path == nil {
		return nil, notFound(KindPath, id)
	}
	return path, nil
}
