/*
store.go - Unit of work contract shared by the stores

PURPOSE:
  The engine itself never writes. The host (api package) loads a payslip,
  runs the merge and saves the result; those steps run inside one store
  transaction so a concurrent save cannot interleave.

  Read interfaces live next to the types they return:
    - designation.Directory: employees and rate configs
    - attendance.Source:     attendance records
    - payslip.Store:         payslip persistence (host only)

IMPLEMENTATIONS:
  - store/memory:   in-memory, used by engine tests
  - store/sqlite:   SQLite, default for the server
  - store/postgres: PostgreSQL via pgx

EXAMPLE:
  err := repo.WithTx(ctx, func(tx store.Tx) error {
      slip, err := tx.GetPayslip(ctx, id)
      ...
      return tx.SavePayslip(ctx, slip)
  })
*/
package generic

import "context"

// UnitOfWork runs fn inside a transaction. If fn returns an error the
// transaction is rolled back, otherwise it is committed.
type UnitOfWork[T any] interface {
	WithTx(ctx context.Context, fn func(tx T) error) error
}
