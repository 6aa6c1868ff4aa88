package billing

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestEligibilityQueryFiltersMonthlyPermitsOfActiveClients(t *testing.T) {
	require.Contains(t, listEligibleMonthlyPermitsSQL, "p.permit_type = 'monthly'")
	require.Contains(t, listEligibleMonthlyPermitsSQL, "cl.active = TRUE")
	require.Contains(t, listEligibleMonthlyPermitsSQL, "JOIN clients cl ON cl.id = c.client_id")
	require.Contains(t, listEligibleMonthlyPermitsSQL, "ORDER BY p.id")
	require.Contains(t, listEligibleMonthlyPermitsSQL, "FOR UPDATE OF p")
}

func TestInvoiceInsertIsUnpaidAndCarriesPeriod(t *testing.T) {
	require.Contains(t, insertUnpaidPaymentSQL, "billing_period")
	require.Contains(t, insertUnpaidPaymentSQL, "FALSE")
}

func TestUniqueViolationMapsToDuplicateInvoice(t *testing.T) {
	invoice := Invoice{PermitID: 7, ClientID: 3, Amount: money("150"), Period: "2024-02"}
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "payments_permit_period_uniq"}

	err := insertError(fmt.Errorf("exec: %w", pgErr), invoice)
	require.ErrorIs(t, err, ErrDuplicateInvoice)
	require.Contains(t, err.Error(), "permit 7 period 2024-02")
}

func TestOtherInsertErrorsPassThrough(t *testing.T) {
	invoice := Invoice{PermitID: 7, Period: "2024-02"}

	require.NoError(t, insertError(nil, invoice))

	fkErr := &pgconn.PgError{Code: "23503"}
	err := insertError(fkErr, invoice)
	require.NotErrorIs(t, err, ErrDuplicateInvoice)
	require.Same(t, fkErr, err)
}
