/*
Package sqlite provides a SQLite-backed store.Repository.

PURPOSE:
  Persists employees, designation rate configs, attendance and payslips
  for the HTTP host. The engine packages only ever see the read interfaces
  (designation.Directory, attendance.Source) and the host saves payslips
  through payslip.Store.

KEY TABLES:
  employees:     id, name, designation
  designations:  rate configuration stored as factory JSON
  attendance:    one row per employee day, submitted flag, in/out times
  payslips:      header with status and totals
  payslip_lines: earnings and deductions, unique per (payslip, kind, component)

INDEXES:
  - idx_attendance_employee_date: period queries (hot path)
  - idx_payslips_employee: payslip listing by employee

STORAGE FORMATS:
  - dates as YYYY-MM-DD, timestamps as RFC3339 with offset
  - decimals as TEXT so nothing passes through float64
  - the merge marker (AdjustmentsApplied) is never stored

CONCURRENCY:
  Uses sync.RWMutex for thread-safety and a single connection, so
  ":memory:" databases behave like one database.

USAGE:
  store, err := sqlite.New("./data/payroll.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - store/store.go: Repository contract
  - store/memory: in-memory implementation for tests
  - store/postgres: PostgreSQL implementation
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/fours/payroll-engine/attendance"
	"github.com/fours/payroll-engine/designation"
	"github.com/fours/payroll-engine/factory"
	"github.com/fours/payroll-engine/generic"
	"github.com/fours/payroll-engine/payslip"
	"github.com/fours/payroll-engine/store"
)

// Store implements store.Repository using SQLite.
type Store struct {
	db      *sql.DB
	mu      sync.RWMutex
	factory *factory.DesignationFactory
}

var _ store.Repository = (*Store)(nil)

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db, factory: factory.NewDesignationFactory()}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		designation_id TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS designations (
		id TEXT PRIMARY KEY,
		config_json TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS attendance (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		attendance_date TEXT NOT NULL,
		status TEXT NOT NULL,
		in_time TEXT,
		out_time TEXT,
		late_entry BOOLEAN NOT NULL DEFAULT FALSE,
		early_exit BOOLEAN NOT NULL DEFAULT FALSE,
		submitted BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_attendance_employee_date
		ON attendance(employee_id, attendance_date);

	CREATE TABLE IF NOT EXISTS payslips (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		period_start TEXT NOT NULL,
		period_end TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'draft',
		currency TEXT NOT NULL DEFAULT '',
		gross_pay TEXT NOT NULL,
		total_deduction TEXT NOT NULL,
		net_pay TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_payslips_employee
		ON payslips(employee_id, period_start);

	CREATE TABLE IF NOT EXISTS payslip_lines (
		payslip_id TEXT NOT NULL REFERENCES payslips(id) ON DELETE CASCADE,
		kind TEXT NOT NULL,
		position INTEGER NOT NULL,
		component TEXT NOT NULL,
		amount TEXT NOT NULL,
		PRIMARY KEY (payslip_id, kind, component)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// EMPLOYEES (designation.Directory)
// =============================================================================

// SaveEmployee saves an employee.
func (s *Store) SaveEmployee(ctx context.Context, e designation.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO employees (id, name, designation_id, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			designation_id = excluded.designation_id
	`
	_, err := s.db.ExecContext(ctx, query,
		string(e.ID), e.Name, nullString(string(e.DesignationID)),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save employee: %w", err)
	}
	return nil
}

// GetEmployee retrieves an employee by ID.
func (s *Store) GetEmployee(ctx context.Context, id generic.EmployeeID) (designation.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getEmployee(ctx, s.db, id)
}

func getEmployee(ctx context.Context, q querier, id generic.EmployeeID) (designation.Employee, error) {
	var (
		e             designation.Employee
		designationID sql.NullString
	)
	err := q.QueryRowContext(ctx,
		"SELECT id, name, designation_id FROM employees WHERE id = ?", string(id),
	).Scan(&e.ID, &e.Name, &designationID)
	if errors.Is(err, sql.ErrNoRows) {
		return designation.Employee{}, generic.ErrEmployeeNotFound
	}
	if err != nil {
		return designation.Employee{}, fmt.Errorf("failed to get employee: %w", err)
	}
	e.DesignationID = generic.DesignationID(designationID.String)
	return e, nil
}

// ListEmployees returns all employees.
func (s *Store) ListEmployees(ctx context.Context) ([]designation.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT id, name, designation_id FROM employees ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	employees := []designation.Employee{}
	for rows.Next() {
		var (
			e             designation.Employee
			designationID sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Name, &designationID); err != nil {
			return nil, err
		}
		e.DesignationID = generic.DesignationID(designationID.String)
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

// =============================================================================
// DESIGNATIONS (designation.Directory)
// =============================================================================

// SaveDesignation stores the rate config in its JSON form.
func (s *Store) SaveDesignation(ctx context.Context, c designation.RateConfig) error {
	if err := c.Validate(); err != nil {
		return err
	}
	configJSON, err := s.factory.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode designation: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO designations (id, config_json, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			config_json = excluded.config_json,
			updated_at = excluded.updated_at
	`
	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := s.db.ExecContext(ctx, query, string(c.DesignationID), string(configJSON), now, now); err != nil {
		return fmt.Errorf("failed to save designation: %w", err)
	}
	return nil
}

// GetDesignationRates retrieves a designation's rates by ID.
func (s *Store) GetDesignationRates(ctx context.Context, id generic.DesignationID) (designation.RateConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getDesignation(ctx, s.db, id)
}

func (s *Store) getDesignation(ctx context.Context, q querier, id generic.DesignationID) (designation.RateConfig, error) {
	var configJSON string
	err := q.QueryRowContext(ctx, "SELECT config_json FROM designations WHERE id = ?", string(id)).Scan(&configJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return designation.RateConfig{}, generic.ErrDesignationNotFound
	}
	if err != nil {
		return designation.RateConfig{}, fmt.Errorf("failed to get designation: %w", err)
	}
	return s.factory.ParseDesignation(configJSON)
}

// ListDesignations returns all designation rate configs.
func (s *Store) ListDesignations(ctx context.Context) ([]designation.RateConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT config_json FROM designations ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list designations: %w", err)
	}
	defer rows.Close()

	configs := []designation.RateConfig{}
	for rows.Next() {
		var configJSON string
		if err := rows.Scan(&configJSON); err != nil {
			return nil, err
		}
		c, err := s.factory.ParseDesignation(configJSON)
		if err != nil {
			return nil, err
		}
		configs = append(configs, c)
	}
	return configs, rows.Err()
}

// =============================================================================
// ATTENDANCE (attendance.Source)
// =============================================================================

// SaveAttendance inserts or replaces an attendance record.
func (s *Store) SaveAttendance(ctx context.Context, r attendance.Record) error {
	status, err := r.Status.MarshalText()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO attendance (id, employee_id, attendance_date, status, in_time, out_time,
			late_entry, early_exit, submitted, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			employee_id = excluded.employee_id,
			attendance_date = excluded.attendance_date,
			status = excluded.status,
			in_time = excluded.in_time,
			out_time = excluded.out_time,
			late_entry = excluded.late_entry,
			early_exit = excluded.early_exit,
			submitted = excluded.submitted
	`
	_, err = s.db.ExecContext(ctx, query,
		r.ID, string(r.EmployeeID), r.Date.String(), string(status),
		formatTimestamp(r.InTime), formatTimestamp(r.OutTime),
		r.LateEntry, r.EarlyExit, r.Submitted,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save attendance: %w", err)
	}
	return nil
}

// QueryAttendance returns matching records ordered by date.
func (s *Store) QueryAttendance(ctx context.Context, q attendance.Query) ([]attendance.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queryAttendance(ctx, s.db, q)
}

func queryAttendance(ctx context.Context, db querier, q attendance.Query) ([]attendance.Record, error) {
	query := `
		SELECT id, employee_id, attendance_date, status, in_time, out_time,
		       late_entry, early_exit, submitted
		FROM attendance
		WHERE employee_id = ? AND attendance_date >= ? AND attendance_date <= ?
	`
	args := []any{string(q.EmployeeID), q.Period.Start.String(), q.Period.End.String()}
	if q.SubmittedOnly {
		query += " AND submitted = TRUE"
	}
	query += " ORDER BY attendance_date ASC, id ASC"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance: %w", err)
	}
	defer rows.Close()

	var records []attendance.Record
	for rows.Next() {
		r, err := scanAttendance(rows)
		if err != nil {
			return nil, err
		}
		// Status filtering stays in Go so the closed set is matched exactly.
		if q.Matches(r) {
			records = append(records, r)
		}
	}
	return records, rows.Err()
}

func scanAttendance(rows *sql.Rows) (attendance.Record, error) {
	var (
		r       attendance.Record
		date    string
		status  string
		inTime  sql.NullString
		outTime sql.NullString
	)
	err := rows.Scan(&r.ID, &r.EmployeeID, &date, &status, &inTime, &outTime,
		&r.LateEntry, &r.EarlyExit, &r.Submitted)
	if err != nil {
		return r, fmt.Errorf("failed to scan attendance: %w", err)
	}

	if r.Date, err = generic.ParseDate(date); err != nil {
		return r, err
	}
	if r.Status, err = attendance.ParseStatus(status); err != nil {
		return r, err
	}
	r.InTime = parseTimestamp(inTime)
	r.OutTime = parseTimestamp(outTime)
	return r, nil
}

// =============================================================================
// PAYSLIPS (payslip.Store)
// =============================================================================

// SavePayslip writes the header and replaces the lines atomically.
func (s *Store) SavePayslip(ctx context.Context, a *payslip.Aggregate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := savePayslip(ctx, sqlTx, a); err != nil {
		return err
	}
	return sqlTx.Commit()
}

func savePayslip(ctx context.Context, q querier, a *payslip.Aggregate) error {
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
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			employee_id = excluded.employee_id,
			period_start = excluded.period_start,
			period_end = excluded.period_end,
			status = excluded.status,
			currency = excluded.currency,
			gross_pay = excluded.gross_pay,
			total_deduction = excluded.total_deduction,
			net_pay = excluded.net_pay,
			updated_at = excluded.updated_at
	`
	_, err := q.ExecContext(ctx, query,
		string(a.ID), string(a.EmployeeID), a.Period.Start.String(), a.Period.End.String(),
		a.Status.String(), a.Currency,
		a.GrossPay.String(), a.TotalDeduction.String(), a.NetPay.String(),
		a.CreatedAt.Format(time.RFC3339), a.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save payslip: %w", err)
	}

	if _, err := q.ExecContext(ctx, "DELETE FROM payslip_lines WHERE payslip_id = ?", string(a.ID)); err != nil {
		return fmt.Errorf("failed to clear payslip lines: %w", err)
	}

	insert := "INSERT INTO payslip_lines (payslip_id, kind, position, component, amount) VALUES (?, ?, ?, ?, ?)"
	for kind, lines := range map[generic.ComponentKind][]payslip.LineItem{
		generic.KindEarning:   a.Earnings,
		generic.KindDeduction: a.Deductions,
	} {
		for i, l := range lines {
			if _, err := q.ExecContext(ctx, insert, string(a.ID), string(kind), i, l.ComponentName, l.Amount.String()); err != nil {
				return fmt.Errorf("failed to save payslip line: %w", err)
			}
		}
	}
	return nil
}

// GetPayslip retrieves a payslip with its lines.
func (s *Store) GetPayslip(ctx context.Context, id generic.PayslipID) (*payslip.Aggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getPayslip(ctx, s.db, id)
}

const payslipColumns = `id, employee_id, period_start, period_end, status, currency,
	gross_pay, total_deduction, net_pay, created_at, updated_at`

func getPayslip(ctx context.Context, q querier, id generic.PayslipID) (*payslip.Aggregate, error) {
	rows, err := q.QueryContext(ctx, "SELECT "+payslipColumns+" FROM payslips WHERE id = ?", string(id))
	if err != nil {
		return nil, fmt.Errorf("failed to get payslip: %w", err)
	}
	slips, err := scanPayslips(rows)
	if err != nil {
		return nil, err
	}
	if len(slips) == 0 {
		return nil, generic.ErrPayslipNotFound
	}
	if err := loadLines(ctx, q, slips[0]); err != nil {
		return nil, err
	}
	return slips[0], nil
}

// ListPayslips returns payslips matching f ordered by period.
func (s *Store) ListPayslips(ctx context.Context, f payslip.Filter) ([]*payslip.Aggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listPayslips(ctx, s.db, f)
}

func listPayslips(ctx context.Context, q querier, f payslip.Filter) ([]*payslip.Aggregate, error) {
	query := "SELECT " + payslipColumns + " FROM payslips WHERE 1 = 1"
	var args []any
	if f.EmployeeID != "" {
		query += " AND employee_id = ?"
		args = append(args, string(f.EmployeeID))
	}
	if f.Status != nil {
		query += " AND status = ?"
		args = append(args, f.Status.String())
	}
	query += " ORDER BY period_start ASC, id ASC"

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list payslips: %w", err)
	}
	slips, err := scanPayslips(rows)
	if err != nil {
		return nil, err
	}
	for _, a := range slips {
		if err := loadLines(ctx, q, a); err != nil {
			return nil, err
		}
	}
	return slips, nil
}

// scanPayslips reads and closes rows before any line query runs on the
// single connection.
func scanPayslips(rows *sql.Rows) ([]*payslip.Aggregate, error) {
	defer rows.Close()

	slips := []*payslip.Aggregate{}
	for rows.Next() {
		var (
			a                          payslip.Aggregate
			start, end, status         string
			gross, totalDeduction, net string
			createdAt, updatedAt       string
		)
		err := rows.Scan(&a.ID, &a.EmployeeID, &start, &end, &status, &a.Currency,
			&gross, &totalDeduction, &net, &createdAt, &updatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payslip: %w", err)
		}

		if a.Period, err = generic.ParsePeriod(start, end); err != nil {
			return nil, err
		}
		if a.Status, err = payslip.ParseStatus(status); err != nil {
			return nil, err
		}
		a.GrossPay = generic.MustParseDecimal(gross)
		a.TotalDeduction = generic.MustParseDecimal(totalDeduction)
		a.NetPay = generic.MustParseDecimal(net)
		a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		a.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		slips = append(slips, &a)
	}
	return slips, rows.Err()
}

func loadLines(ctx context.Context, q querier, a *payslip.Aggregate) error {
	rows, err := q.QueryContext(ctx,
		"SELECT kind, component, amount FROM payslip_lines WHERE payslip_id = ? ORDER BY kind, position",
		string(a.ID),
	)
	if err != nil {
		return fmt.Errorf("failed to load payslip lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var kind, component, amount string
		if err := rows.Scan(&kind, &component, &amount); err != nil {
			return fmt.Errorf("failed to scan payslip line: %w", err)
		}
		line := payslip.LineItem{ComponentName: component, Amount: generic.MustParseDecimal(amount)}
		switch generic.ComponentKind(kind) {
		case generic.KindEarning:
			a.Earnings = append(a.Earnings, line)
		case generic.KindDeduction:
			a.Deductions = append(a.Deductions, line)
		}
	}
	return rows.Err()
}

// =============================================================================
// TRANSACTIONAL STORE
// =============================================================================

// WithTx executes a function within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(store.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx, parent: s}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

type txStore struct {
	tx     *sql.Tx
	parent *Store
}

func (ts *txStore) GetEmployee(ctx context.Context, id generic.EmployeeID) (designation.Employee, error) {
	return getEmployee(ctx, ts.tx, id)
}

func (ts *txStore) GetDesignationRates(ctx context.Context, id generic.DesignationID) (designation.RateConfig, error) {
	return ts.parent.getDesignation(ctx, ts.tx, id)
}

func (ts *txStore) QueryAttendance(ctx context.Context, q attendance.Query) ([]attendance.Record, error) {
	return queryAttendance(ctx, ts.tx, q)
}

func (ts *txStore) SavePayslip(ctx context.Context, a *payslip.Aggregate) error {
	return savePayslip(ctx, ts.tx, a)
}

func (ts *txStore) GetPayslip(ctx context.Context, id generic.PayslipID) (*payslip.Aggregate, error) {
	return getPayslip(ctx, ts.tx, id)
}

func (ts *txStore) ListPayslips(ctx context.Context, f payslip.Filter) ([]*payslip.Aggregate, error) {
	return listPayslips(ctx, ts.tx, f)
}

// =============================================================================
// HELPERS
// =============================================================================

// Reset clears all data (for testing).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"payslip_lines", "payslips", "attendance", "designations", "employees"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func formatTimestamp(t *time.Time) sql.NullString {
	if t == nil || t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(time.RFC3339Nano), Valid: true}
}

func parseTimestamp(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return nil
	}
	return &t
}
