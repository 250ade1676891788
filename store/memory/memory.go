// Package memory provides an in-memory store.Repository for tests and
// local development.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/fours/payroll-engine/attendance"
	"github.com/fours/payroll-engine/designation"
	"github.com/fours/payroll-engine/generic"
	"github.com/fours/payroll-engine/payslip"
	"github.com/fours/payroll-engine/store"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu sync.RWMutex
	d  data

	// FailOn makes the named read return the error, for exercising the
	// merge's lookup failure path. Keys: "employee", "designation",
	// "attendance".
	FailOn map[string]error
}

var _ store.Repository = (*Memory)(nil)

type data struct {
	employees    map[generic.EmployeeID]designation.Employee
	designations map[generic.DesignationID]designation.RateConfig
	attendance   map[generic.EmployeeID][]attendance.Record
	payslips     map[generic.PayslipID]*payslip.Aggregate
}

func New() *Memory {
	return &Memory{d: emptyData()}
}

func emptyData() data {
	return data{
		employees:    make(map[generic.EmployeeID]designation.Employee),
		designations: make(map[generic.DesignationID]designation.RateConfig),
		attendance:   make(map[generic.EmployeeID][]attendance.Record),
		payslips:     make(map[generic.PayslipID]*payslip.Aggregate),
	}
}

func (m *Memory) Close() error { return nil }

// Reset clears all data.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.d = emptyData()
	return nil
}

func (m *Memory) fail(key string) error {
	if m.FailOn == nil {
		return nil
	}
	return m.FailOn[key]
}

// =============================================================================
// DIRECTORY
// =============================================================================

func (m *Memory) SaveEmployee(_ context.Context, e designation.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.d.employees[e.ID] = e
	return nil
}

func (m *Memory) GetEmployee(_ context.Context, id generic.EmployeeID) (designation.Employee, error) {
	if err := m.fail("employee"); err != nil {
		return designation.Employee{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.d.getEmployee(id)
}

func (m *Memory) ListEmployees(_ context.Context) ([]designation.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]designation.Employee, 0, len(m.d.employees))
	for _, e := range m.d.employees {
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *Memory) SaveDesignation(_ context.Context, c designation.RateConfig) error {
	if err := c.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.d.designations[c.DesignationID] = c
	return nil
}

func (m *Memory) GetDesignationRates(_ context.Context, id generic.DesignationID) (designation.RateConfig, error) {
	if err := m.fail("designation"); err != nil {
		return designation.RateConfig{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.d.getDesignation(id)
}

func (m *Memory) ListDesignations(_ context.Context) ([]designation.RateConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]designation.RateConfig, 0, len(m.d.designations))
	for _, c := range m.d.designations {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].DesignationID < result[j].DesignationID })
	return result, nil
}

// =============================================================================
// ATTENDANCE
// =============================================================================

// SaveAttendance inserts or replaces a record, keeping each employee's
// records ordered by date.
func (m *Memory) SaveAttendance(_ context.Context, r attendance.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.d.saveAttendance(r)
	return nil
}

func (m *Memory) QueryAttendance(_ context.Context, q attendance.Query) ([]attendance.Record, error) {
	if err := m.fail("attendance"); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.d.queryAttendance(q), nil
}

// =============================================================================
// PAYSLIPS
// =============================================================================

func (m *Memory) SavePayslip(_ context.Context, a *payslip.Aggregate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.d.savePayslip(a)
}

func (m *Memory) GetPayslip(_ context.Context, id generic.PayslipID) (*payslip.Aggregate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.d.getPayslip(id)
}

func (m *Memory) ListPayslips(_ context.Context, f payslip.Filter) ([]*payslip.Aggregate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.d.listPayslips(f), nil
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx executes fn within a transaction.
// For memory store, this is simulated with a snapshot + rollback on error.
func (m *Memory) WithTx(_ context.Context, fn func(store.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.d.clone()
	if err := fn(&txView{parent: m}); err != nil {
		m.d = snapshot
		return err
	}
	return nil
}

// txView runs against the parent's data while the parent lock is held.
type txView struct {
	parent *Memory
}

func (tv *txView) GetEmployee(_ context.Context, id generic.EmployeeID) (designation.Employee, error) {
	if err := tv.parent.fail("employee"); err != nil {
		return designation.Employee{}, err
	}
	return tv.parent.d.getEmployee(id)
}

func (tv *txView) GetDesignationRates(_ context.Context, id generic.DesignationID) (designation.RateConfig, error) {
	if err := tv.parent.fail("designation"); err != nil {
		return designation.RateConfig{}, err
	}
	return tv.parent.d.getDesignation(id)
}

func (tv *txView) QueryAttendance(_ context.Context, q attendance.Query) ([]attendance.Record, error) {
	if err := tv.parent.fail("attendance"); err != nil {
		return nil, err
	}
	return tv.parent.d.queryAttendance(q), nil
}

func (tv *txView) SavePayslip(_ context.Context, a *payslip.Aggregate) error {
	return tv.parent.d.savePayslip(a)
}

func (tv *txView) GetPayslip(_ context.Context, id generic.PayslipID) (*payslip.Aggregate, error) {
	return tv.parent.d.getPayslip(id)
}

func (tv *txView) ListPayslips(_ context.Context, f payslip.Filter) ([]*payslip.Aggregate, error) {
	return tv.parent.d.listPayslips(f), nil
}

// =============================================================================
// UNLOCKED DATA ACCESS
// =============================================================================

func (d *data) getEmployee(id generic.EmployeeID) (designation.Employee, error) {
	e, ok := d.employees[id]
	if !ok {
		return designation.Employee{}, generic.ErrEmployeeNotFound
	}
	return e, nil
}

func (d *data) getDesignation(id generic.DesignationID) (designation.RateConfig, error) {
	c, ok := d.designations[id]
	if !ok {
		return designation.RateConfig{}, generic.ErrDesignationNotFound
	}
	return c, nil
}

func (d *data) saveAttendance(r attendance.Record) {
	records := d.attendance[r.EmployeeID]
	for i := range records {
		if records[i].ID != "" && records[i].ID == r.ID {
			records = append(records[:i], records[i+1:]...)
			break
		}
	}

	// Binary search for insertion point, after records of the same date
	i := sort.Search(len(records), func(i int) bool {
		return records[i].Date.After(r.Date)
	})
	records = append(records, attendance.Record{})
	copy(records[i+1:], records[i:])
	records[i] = r
	d.attendance[r.EmployeeID] = records
}

func (d *data) queryAttendance(q attendance.Query) []attendance.Record {
	var result []attendance.Record
	for _, r := range d.attendance[q.EmployeeID] {
		if q.Matches(r) {
			result = append(result, r)
		}
	}
	return result
}

func (d *data) savePayslip(a *payslip.Aggregate) error {
	if err := a.Validate(); err != nil {
		return err
	}
	stored := a.Clone()
	stored.AdjustmentsApplied = false
	d.payslips[a.ID] = stored
	return nil
}

func (d *data) getPayslip(id generic.PayslipID) (*payslip.Aggregate, error) {
	a, ok := d.payslips[id]
	if !ok {
		return nil, generic.ErrPayslipNotFound
	}
	return a.Clone(), nil
}

func (d *data) listPayslips(f payslip.Filter) []*payslip.Aggregate {
	var result []*payslip.Aggregate
	for _, a := range d.payslips {
		if f.EmployeeID != "" && a.EmployeeID != f.EmployeeID {
			continue
		}
		if f.Status != nil && a.Status != *f.Status {
			continue
		}
		result = append(result, a.Clone())
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Period.Start.Equal(result[j].Period.Start) {
			return result[i].Period.Start.Before(result[j].Period.Start)
		}
		return result[i].ID < result[j].ID
	})
	return result
}

func (d *data) clone() data {
	c := data{
		employees:    make(map[generic.EmployeeID]designation.Employee, len(d.employees)),
		designations: make(map[generic.DesignationID]designation.RateConfig, len(d.designations)),
		attendance:   make(map[generic.EmployeeID][]attendance.Record, len(d.attendance)),
		payslips:     make(map[generic.PayslipID]*payslip.Aggregate, len(d.payslips)),
	}
	for k, v := range d.employees {
		c.employees[k] = v
	}
	for k, v := range d.designations {
		c.designations[k] = v
	}
	for k, v := range d.attendance {
		c.attendance[k] = append([]attendance.Record{}, v...)
	}
	for k, v := range d.payslips {
		c.payslips[k] = v.Clone()
	}
	return c
}
