/*
Package postgres provides a PostgreSQL-backed store.Repository using a pgx
connection pool.

PURPOSE:
  Same contract and table layout as store/sqlite, with native column types:
  DATE for attendance days and periods, NUMERIC for amounts, TIMESTAMPTZ for
  check-in/check-out. TIMESTAMPTZ drops the writer's UTC offset, so it is kept
  in a separate column and re-applied on read; overtime windows are anchored
  in the checkout's wall-clock time.

USAGE:
  s, err := postgres.New(ctx, os.Getenv("DATABASE_URL"))
  if err != nil {
      log.Fatal(err)
  }
  defer s.Close()

SEE ALSO:
  - store/sqlite/sqlite.go: the SQLite implementation
*/
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/fours/payroll-engine/attendance"
	"github.com/fours/payroll-engine/designation"
	"github.com/fours/payroll-engine/factory"
	"github.com/fours/payroll-engine/generic"
	"github.com/fours/payroll-engine/payslip"
	"github.com/fours/payroll-engine/store"
)

// Querier is satisfied by *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, arguments ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	pool    *pgxpool.Pool
	factory *factory.DesignationFactory
}

var _ store.Repository = (*Store)(nil)

// New connects, pings and migrates.
func New(ctx context.Context, dsn string) (*Store, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	// Connection pool settings
	config.MaxConns = 25
	config.MinConns = 5

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{pool: pool, factory: factory.NewDesignationFactory()}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		designation_id TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS designations (
		id TEXT PRIMARY KEY,
		config JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS attendance (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		attendance_date DATE NOT NULL,
		status TEXT NOT NULL,
		in_time TIMESTAMPTZ,
		in_offset INTEGER NOT NULL DEFAULT 0,
		out_time TIMESTAMPTZ,
		out_offset INTEGER NOT NULL DEFAULT 0,
		late_entry BOOLEAN NOT NULL DEFAULT FALSE,
		early_exit BOOLEAN NOT NULL DEFAULT FALSE,
		submitted BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_attendance_employee_date
		ON attendance(employee_id, attendance_date);

	CREATE TABLE IF NOT EXISTS payslips (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		period_start DATE NOT NULL,
		period_end DATE NOT NULL,
		status TEXT NOT NULL DEFAULT 'draft',
		currency TEXT NOT NULL DEFAULT '',
		gross_pay NUMERIC(18,2) NOT NULL,
		total_deduction NUMERIC(18,2) NOT NULL,
		net_pay NUMERIC(18,2) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_payslips_employee
		ON payslips(employee_id, period_start);

	CREATE TABLE IF NOT EXISTS payslip_lines (
		payslip_id TEXT NOT NULL REFERENCES payslips(id) ON DELETE CASCADE,
		kind TEXT NOT NULL,
		position INTEGER NOT NULL,
		component TEXT NOT NULL,
		amount NUMERIC(18,2) NOT NULL,
		PRIMARY KEY (payslip_id, kind, component)
	);
	`
	_, err := s.pool.Exec(ctx, schema)
	return err
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx executes fn inside a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(store.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(&txStore{q: tx, parent: s}); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rollback error: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type txStore struct {
	q      Querier
	parent *Store
}

func (t *txStore) GetEmployee(ctx context.Context, id generic.EmployeeID) (designation.Employee, error) {
	return getEmployee(ctx, t.q, id)
}

func (t *txStore) GetDesignationRates(ctx context.Context, id generic.DesignationID) (designation.RateConfig, error) {
	return t.parent.getDesignation(ctx, t.q, id)
}

func (t *txStore) QueryAttendance(ctx context.Context, q attendance.Query) ([]attendance.Record, error) {
	return queryAttendance(ctx, t.q, q)
}

func (t *txStore) SavePayslip(ctx context.Context, a *payslip.Aggregate) error {
	return savePayslip(ctx, t.q, a)
}

func (t *txStore) GetPayslip(ctx context.Context, id generic.PayslipID) (*payslip.Aggregate, error) {
	return getPayslip(ctx, t.q, id)
}

func (t *txStore) ListPayslips(ctx context.Context, f payslip.Filter) ([]*payslip.Aggregate, error) {
	return listPayslips(ctx, t.q, f)
}

// =============================================================================
// EMPLOYEES & DESIGNATIONS
// =============================================================================

func (s *Store) SaveEmployee(ctx context.Context, e designation.Employee) error {
	query := `
		INSERT INTO employees (id, name, designation_id)
		VALUES ($1, $2, NULLIF($3, ''))
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			designation_id = EXCLUDED.designation_id
	`
	if _, err := s.pool.Exec(ctx, query, string(e.ID), e.Name, string(e.DesignationID)); err != nil {
		return fmt.Errorf("failed to save employee: %w", err)
	}
	return nil
}

func (s *Store) GetEmployee(ctx context.Context, id generic.EmployeeID) (designation.Employee, error) {
	return getEmployee(ctx, s.pool, id)
}

func getEmployee(ctx context.Context, q Querier, id generic.EmployeeID) (designation.Employee, error) {
	var (
		e             designation.Employee
		empID, name   string
		designationID *string
	)
	err := q.QueryRow(ctx, "SELECT id, name, designation_id FROM employees WHERE id = $1", string(id)).
		Scan(&empID, &name, &designationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return designation.Employee{}, generic.ErrEmployeeNotFound
		}
		return designation.Employee{}, fmt.Errorf("failed to get employee: %w", err)
	}
	e.ID = generic.EmployeeID(empID)
	e.Name = name
	if designationID != nil {
		e.DesignationID = generic.DesignationID(*designationID)
	}
	return e, nil
}

func (s *Store) ListEmployees(ctx context.Context) ([]designation.Employee, error) {
	rows, err := s.pool.Query(ctx, "SELECT id, name, COALESCE(designation_id, '') FROM employees ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	employees := []designation.Employee{}
	for rows.Next() {
		var id, name, designationID string
		if err := rows.Scan(&id, &name, &designationID); err != nil {
			return nil, err
		}
		employees = append(employees, designation.Employee{
			ID:            generic.EmployeeID(id),
			Name:          name,
			DesignationID: generic.DesignationID(designationID),
		})
	}
	return employees, rows.Err()
}

func (s *Store) SaveDesignation(ctx context.Context, c designation.RateConfig) error {
	if err := c.Validate(); err != nil {
		return err
	}
	config, err := s.factory.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode designation: %w", err)
	}

	query := `
		INSERT INTO designations (id, config)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET
			config = EXCLUDED.config,
			updated_at = NOW()
	`
	if _, err := s.pool.Exec(ctx, query, string(c.DesignationID), string(config)); err != nil {
		return fmt.Errorf("failed to save designation: %w", err)
	}
	return nil
}

func (s *Store) GetDesignationRates(ctx context.Context, id generic.DesignationID) (designation.RateConfig, error) {
	return s.getDesignation(ctx, s.pool, id)
}

func (s *Store) getDesignation(ctx context.Context, q Querier, id generic.DesignationID) (designation.RateConfig, error) {
	var config string
	err := q.QueryRow(ctx, "SELECT config::text FROM designations WHERE id = $1", string(id)).Scan(&config)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return designation.RateConfig{}, generic.ErrDesignationNotFound
		}
		return designation.RateConfig{}, fmt.Errorf("failed to get designation: %w", err)
	}
	return s.factory.ParseDesignation(config)
}

func (s *Store) ListDesignations(ctx context.Context) ([]designation.RateConfig, error) {
	rows, err := s.pool.Query(ctx, "SELECT config::text FROM designations ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list designations: %w", err)
	}
	defer rows.Close()

	configs := []designation.RateConfig{}
	for rows.Next() {
		var config string
		if err := rows.Scan(&config); err != nil {
			return nil, err
		}
		c, err := s.factory.ParseDesignation(config)
		if err != nil {
			return nil, err
		}
		configs = append(configs, c)
	}
	return configs, rows.Err()
}

// =============================================================================
// ATTENDANCE
// =============================================================================

func (s *Store) SaveAttendance(ctx context.Context, r attendance.Record) error {
	status, err := r.Status.MarshalText()
	if err != nil {
		return err
	}

	query := `
		INSERT INTO attendance (id, employee_id, attendance_date, status,
			in_time, in_offset, out_time, out_offset, late_entry, early_exit, submitted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			employee_id = EXCLUDED.employee_id,
			attendance_date = EXCLUDED.attendance_date,
			status = EXCLUDED.status,
			in_time = EXCLUDED.in_time,
			in_offset = EXCLUDED.in_offset,
			out_time = EXCLUDED.out_time,
			out_offset = EXCLUDED.out_offset,
			late_entry = EXCLUDED.late_entry,
			early_exit = EXCLUDED.early_exit,
			submitted = EXCLUDED.submitted
	`
	_, err = s.pool.Exec(ctx, query,
		r.ID, string(r.EmployeeID), r.Date.Time, string(status),
		r.InTime, offsetOf(r.InTime), r.OutTime, offsetOf(r.OutTime),
		r.LateEntry, r.EarlyExit, r.Submitted,
	)
	if err != nil {
		return fmt.Errorf("failed to save attendance: %w", err)
	}
	return nil
}

func (s *Store) QueryAttendance(ctx context.Context, q attendance.Query) ([]attendance.Record, error) {
	return queryAttendance(ctx, s.pool, q)
}

func queryAttendance(ctx context.Context, db Querier, q attendance.Query) ([]attendance.Record, error) {
	query := `
		SELECT id, employee_id, attendance_date, status, in_time, in_offset,
		       out_time, out_offset, late_entry, early_exit, submitted
		FROM attendance
		WHERE employee_id = $1 AND attendance_date BETWEEN $2 AND $3
	`
	if q.SubmittedOnly {
		query += " AND submitted"
	}
	query += " ORDER BY attendance_date ASC, id ASC"

	rows, err := db.Query(ctx, query, string(q.EmployeeID), q.Period.Start.Time, q.Period.End.Time)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance: %w", err)
	}
	defer rows.Close()

	var records []attendance.Record
	for rows.Next() {
		var (
			r                   attendance.Record
			id, employee, st    string
			date                time.Time
			inTime, outTime     *time.Time
			inOffset, outOffset int
		)
		if err := rows.Scan(&id, &employee, &date, &st, &inTime, &inOffset,
			&outTime, &outOffset, &r.LateEntry, &r.EarlyExit, &r.Submitted); err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		if r.Status, err = attendance.ParseStatus(st); err != nil {
			return nil, err
		}
		r.ID = id
		r.EmployeeID = generic.EmployeeID(employee)
		r.Date = generic.DateOf(date)
		r.InTime = withOffset(inTime, inOffset)
		r.OutTime = withOffset(outTime, outOffset)
		if q.Matches(r) {
			records = append(records, r)
		}
	}
	return records, rows.Err()
}

func offsetOf(t *time.Time) int {
	if t == nil {
		return 0
	}
	_, offset := t.Zone()
	return offset
}

func withOffset(t *time.Time, offset int) *time.Time {
	if t == nil {
		return nil
	}
	local := t.In(time.FixedZone("", offset))
	return &local
}

// =============================================================================
// PAYSLIPS
// =============================================================================

func (s *Store) SavePayslip(ctx context.Context, a *payslip.Aggregate) error {
	return s.WithTx(ctx, func(tx store.Tx) error {
		return tx.SavePayslip(ctx, a)
	})
}

func savePayslip(ctx context.Context, q Querier, a *payslip.Aggregate) error {
	if err := a.Validate(); err != nil {
		return err
	}
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now

	query := `
		INSERT INTO payslips (id, employee_id, period_start, period_end, status, currency,
			gross_pay, total_deduction, net_pay, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			employee_id = EXCLUDED.employee_id,
			period_start = EXCLUDED.period_start,
			period_end = EXCLUDED.period_end,
			status = EXCLUDED.status,
			currency = EXCLUDED.currency,
			gross_pay = EXCLUDED.gross_pay,
			total_deduction = EXCLUDED.total_deduction,
			net_pay = EXCLUDED.net_pay,
			updated_at = EXCLUDED.updated_at
	`
	_, err := q.Exec(ctx, query,
		string(a.ID), string(a.EmployeeID), a.Period.Start.Time, a.Period.End.Time,
		a.Status.String(), a.Currency, a.GrossPay, a.TotalDeduction, a.NetPay,
		a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save payslip: %w", err)
	}

	if _, err := q.Exec(ctx, "DELETE FROM payslip_lines WHERE payslip_id = $1", string(a.ID)); err != nil {
		return fmt.Errorf("failed to clear payslip lines: %w", err)
	}

	batch := &pgx.Batch{}
	insert := "INSERT INTO payslip_lines (payslip_id, kind, position, component, amount) VALUES ($1, $2, $3, $4, $5)"
	for i, l := range a.Earnings {
		batch.Queue(insert, string(a.ID), string(generic.KindEarning), i, l.ComponentName, l.Amount)
	}
	for i, l := range a.Deductions {
		batch.Queue(insert, string(a.ID), string(generic.KindDeduction), i, l.ComponentName, l.Amount)
	}
	if batch.Len() == 0 {
		return nil
	}

	sender, ok := q.(interface {
		SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	})
	if !ok {
		return fmt.Errorf("failed to save payslip lines: querier cannot send batches")
	}
	if err := sender.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to save payslip lines: %w", err)
	}
	return nil
}

func (s *Store) GetPayslip(ctx context.Context, id generic.PayslipID) (*payslip.Aggregate, error) {
	return getPayslip(ctx, s.pool, id)
}

const payslipColumns = `id, employee_id, period_start, period_end, status, currency,
	gross_pay, total_deduction, net_pay, created_at, updated_at`

func getPayslip(ctx context.Context, q Querier, id generic.PayslipID) (*payslip.Aggregate, error) {
	slips, err := queryPayslips(ctx, q, "SELECT "+payslipColumns+" FROM payslips WHERE id = $1", string(id))
	if err != nil {
		return nil, err
	}
	if len(slips) == 0 {
		return nil, generic.ErrPayslipNotFound
	}
	return slips[0], nil
}

func (s *Store) ListPayslips(ctx context.Context, f payslip.Filter) ([]*payslip.Aggregate, error) {
	return listPayslips(ctx, s.pool, f)
}

func listPayslips(ctx context.Context, q Querier, f payslip.Filter) ([]*payslip.Aggregate, error) {
	query := "SELECT " + payslipColumns + " FROM payslips WHERE ($1 = '' OR employee_id = $1) AND ($2 = '' OR status = $2) ORDER BY period_start, id"
	status := ""
	if f.Status != nil {
		status = f.Status.String()
	}
	return queryPayslips(ctx, q, query, string(f.EmployeeID), status)
}

func queryPayslips(ctx context.Context, q Querier, query string, args ...any) ([]*payslip.Aggregate, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query payslips: %w", err)
	}

	slips := []*payslip.Aggregate{}
	for rows.Next() {
		var (
			a                    payslip.Aggregate
			id, employee, status string
			start, end           time.Time
		)
		if err := rows.Scan(&id, &employee, &start, &end, &status, &a.Currency,
			&a.GrossPay, &a.TotalDeduction, &a.NetPay, &a.CreatedAt, &a.UpdatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan payslip: %w", err)
		}
		if a.Status, err = payslip.ParseStatus(status); err != nil {
			rows.Close()
			return nil, err
		}
		a.ID = generic.PayslipID(id)
		a.EmployeeID = generic.EmployeeID(employee)
		a.Period = generic.Period{Start: generic.DateOf(start), End: generic.DateOf(end)}
		slips = append(slips, &a)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, a := range slips {
		if err := loadLines(ctx, q, a); err != nil {
			return nil, err
		}
	}
	return slips, nil
}

func loadLines(ctx context.Context, q Querier, a *payslip.Aggregate) error {
	rows, err := q.Query(ctx,
		"SELECT kind, component, amount FROM payslip_lines WHERE payslip_id = $1 ORDER BY kind, position",
		string(a.ID),
	)
	if err != nil {
		return fmt.Errorf("failed to load payslip lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			kind, component string
			amount          decimal.Decimal
		)
		if err := rows.Scan(&kind, &component, &amount); err != nil {
			return fmt.Errorf("failed to scan payslip line: %w", err)
		}
		line := payslip.LineItem{ComponentName: component, Amount: amount}
		switch generic.ComponentKind(kind) {
		case generic.KindEarning:
			a.Earnings = append(a.Earnings, line)
		case generic.KindDeduction:
			a.Deductions = append(a.Deductions, line)
		}
	}
	return rows.Err()
}
