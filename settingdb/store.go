// Copyright (C) 2025-2026 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package settingdb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// dbtx is the query surface shared by a pool and a transaction.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store provides all functions to execute db queries and transactions.
type Store struct {
	db       dbtx
	connPool *pgxpool.Pool
}

// NewStore creates a new Store over the given connection pool.
func NewStore(connPool *pgxpool.Pool) *Store {
	return &Store{
		db:       connPool,
		connPool: connPool,
	}
}

// Pool returns the underlying connection pool.
func (store *Store) Pool() *pgxpool.Pool {
	return store.connPool
}

// Close releases the underlying connection pool.
func (store *Store) Close() {
	if store.connPool != nil {
		store.connPool.Close()
	}
}

// ExecTx runs fn inside a database transaction. The Querier handed to fn
// issues its queries on the transaction; on error the transaction is rolled
// back.
func (store *Store) ExecTx(ctx context.Context, fn func(Querier) error) (err error) {
	if store.connPool == nil {
		return errors.New("settingdb: transactions require a connection pool")
	}

	tx, err := store.connPool.Begin(ctx)
	if err != nil {
		return err
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		// Use a timeout to prevent infinite hangs during cleanup.
		// Never use the caller ctx for cleanup as it may be cancelled.
		rbCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if rbErr := tx.Rollback(rbCtx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			if err != nil {
				err = errors.Join(err, fmt.Errorf("rollback failed: %w", rbErr))
			} else {
				err = fmt.Errorf("rollback failed: %w", rbErr)
			}
		}
	}()

	txStore := &Store{
		db:       tx,
		connPool: store.connPool,
	}

	if err = fn(txStore); err != nil {
		return err
	}

	// Use a timeout for commit to prevent hanging if DB is unresponsive.
	commitCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err = tx.Commit(commitCtx); err != nil {
		return fmt.Errorf("commit failed: %w", err)
	}
	committed = true
	return nil
}
