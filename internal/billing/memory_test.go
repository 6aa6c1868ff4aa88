package billing

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

type memPayment struct {
	ID       int64
	PermitID int64
	ClientID int64
	Amount   decimal.Decimal
	IsPaid   bool
	Period   Period
	IssuedAt time.Time
}

// memoryStore is an in-memory TxStore. WithTx snapshots state and restores it
// when fn fails.
type memoryStore struct {
	permits  map[int64]Permit
	clients  map[int64]bool
	payments []memPayment
	nextID   int64

	failOp     string
	failPermit int64
	failErr    error
	onInsert   func(Invoice)

	txCount   int
	rollbacks int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		permits: make(map[int64]Permit),
		clients: make(map[int64]bool),
	}
}

func (m *memoryStore) addClient(id int64, active bool) {
	m.clients[id] = active
}

func (m *memoryStore) addPermit(p Permit) {
	if p.Type == "" {
		p.Type = PermitMonthly
	}
	if p.PermitNumber == "" {
		p.PermitNumber = fmt.Sprintf("PMT-%03d", p.ID)
	}
	p.Active = true
	m.permits[p.ID] = p
}

func (m *memoryStore) addPayment(permitID int64, amount string, issued time.Time, paid bool) {
	p := m.permits[permitID]
	m.nextID++
	m.payments = append(m.payments, memPayment{
		ID:       m.nextID,
		PermitID: permitID,
		ClientID: p.ClientID,
		Amount:   decimal.RequireFromString(amount),
		IsPaid:   paid,
		Period:   PeriodOf(issued),
		IssuedAt: issued,
	})
}

func (m *memoryStore) paymentsFor(permitID int64) []memPayment {
	var out []memPayment
	for _, p := range m.payments {
		if p.PermitID == permitID {
			out = append(out, p)
		}
	}
	return out
}

func (m *memoryStore) sum(permitID int64) decimal.Decimal {
	total := decimal.Zero
	for _, p := range m.paymentsFor(permitID) {
		total = total.Add(p.Amount)
	}
	return total
}

func (m *memoryStore) fail(op string, permitID int64) error {
	if m.failOp == op && (m.failPermit == 0 || m.failPermit == permitID) {
		return m.failErr
	}
	return nil
}

func (m *memoryStore) WithTx(ctx context.Context, fn func(context.Context, Store) error) error {
	m.txCount++
	permits := maps.Clone(m.permits)
	payments := slices.Clone(m.payments)
	nextID := m.nextID
	if err := fn(ctx, m); err != nil {
		m.permits, m.payments, m.nextID = permits, payments, nextID
		m.rollbacks++
		return err
	}
	return nil
}

func (m *memoryStore) ListEligibleMonthlyPermits(_ context.Context, _ time.Time) ([]Permit, error) {
	if err := m.fail("list", 0); err != nil {
		return nil, err
	}
	var out []Permit
	ids := make([]int64, 0, len(m.permits))
	for id := range m.permits {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		p := m.permits[id]
		if p.Type == PermitMonthly && m.clients[p.ClientID] {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memoryStore) ExtendPermit(_ context.Context, id int64, newEndDate time.Time, newTotalCost decimal.Decimal) error {
	if err := m.fail("extend", id); err != nil {
		return err
	}
	p, ok := m.permits[id]
	if !ok {
		return ErrPermitNotFound
	}
	p.EndDate = newEndDate
	p.TotalCost = newTotalCost
	m.permits[id] = p
	return nil
}

func (m *memoryStore) SumPaymentsForPermit(_ context.Context, id int64) (decimal.Decimal, error) {
	if err := m.fail("sum", id); err != nil {
		return decimal.Zero, err
	}
	return m.sum(id), nil
}

func (m *memoryStore) HasPaymentInPeriod(_ context.Context, permitID int64, period Period) (bool, error) {
	if err := m.fail("period", permitID); err != nil {
		return false, err
	}
	for _, p := range m.paymentsFor(permitID) {
		if p.Period == period {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryStore) InsertUnpaidPayment(_ context.Context, invoice Invoice) error {
	if err := m.fail("insert", invoice.PermitID); err != nil {
		return err
	}
	for _, p := range m.paymentsFor(invoice.PermitID) {
		if p.Period == invoice.Period {
			return ErrDuplicateInvoice
		}
	}
	m.nextID++
	m.payments = append(m.payments, memPayment{
		ID:       m.nextID,
		PermitID: invoice.PermitID,
		ClientID: invoice.ClientID,
		Amount:   invoice.Amount,
		Period:   invoice.Period,
		IssuedAt: invoice.IssuedAt,
	})
	if m.onInsert != nil {
		m.onInsert(invoice)
	}
	return nil
}

var _ TxStore = (*memoryStore)(nil)
