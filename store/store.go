/*
Package store defines the repository contract shared by the memory, SQLite
and PostgreSQL implementations.

INTERFACES:
  Tx:         the reads and payslip writes available inside a transaction
  Repository: Tx plus master-data writes, listings and WithTx

IMPLEMENTATIONS:
  - store/memory:   maps guarded by a RWMutex, snapshot/restore transactions
  - store/sqlite:   database/sql + mattn/go-sqlite3
  - store/postgres: jackc/pgx/v5 pool

USAGE:
  err := repo.WithTx(ctx, func(tx store.Tx) error {
      slip, err := tx.GetPayslip(ctx, id)
      if err != nil {
          return err
      }
      merger.Merge(ctx, slip)
      return tx.SavePayslip(ctx, slip)
  })
*/
package store

import (
	"context"

	"github.com/fours/payroll-engine/attendance"
	"github.com/fours/payroll-engine/designation"
	"github.com/fours/payroll-engine/generic"
	"github.com/fours/payroll-engine/payslip"
)

// Tx is the view of a repository inside a transaction.
type Tx interface {
	designation.Directory
	attendance.Source
	payslip.Store
}

// Repository is the full store used by the host.
type Repository interface {
	Tx
	generic.UnitOfWork[Tx]

	SaveEmployee(ctx context.Context, e designation.Employee) error
	ListEmployees(ctx context.Context) ([]designation.Employee, error)
	SaveDesignation(ctx context.Context, c designation.RateConfig) error
	ListDesignations(ctx context.Context) ([]designation.RateConfig, error)
	SaveAttendance(ctx context.Context, r attendance.Record) error

	Close() error
}
