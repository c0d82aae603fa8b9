package documents

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func date(value string) time.Time {
	d, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return d
}

func TestLedgerAddDefaults(t *testing.T) {
	now := fixedClock(date("2024-05-15"))
	ledger := NewLedger(nil, now)

	require.NoError(t, ledger.Add(900))
	entries := ledger.Entries()
	require.Len(t, entries, 1)
	require.Equal(t, 1, entries[0].Seq)
	require.Equal(t, 1.0, entries[0].Amount)
	require.Equal(t, date("2024-05-15"), entries[0].Date)
}

func TestLedgerAddRejectedWhenFull(t *testing.T) {
	now := fixedClock(date("2024-05-15"))
	ledger := NewLedger([]Versement{{Seq: 1, Amount: 900, Date: date("2024-05-02")}}, now)

	err := ledger.Add(900)
	require.ErrorIs(t, err, ErrPaymentsExceedTotal)
	require.Len(t, ledger.Entries(), 1)
}

func TestLedgerUpdateAmountKeepsBound(t *testing.T) {
	now := fixedClock(date("2024-05-15"))
	ledger := NewLedger([]Versement{
		{Seq: 1, Amount: 300, Date: date("2024-05-02")},
		{Seq: 2, Amount: 300, Date: date("2024-05-10")},
	}, now)

	require.NoError(t, ledger.UpdateAmount(2, 600, 900))
	require.Equal(t, 900.0, ledger.TotalPaid())

	err := ledger.UpdateAmount(1, 301, 900)
	require.ErrorIs(t, err, ErrPaymentsExceedTotal)
	require.Equal(t, 900.0, ledger.TotalPaid())

	err = ledger.UpdateAmount(1, 0, 900)
	require.ErrorIs(t, err, ErrInvalidAmount)

	err = ledger.UpdateAmount(9, 10, 900)
	require.ErrorIs(t, err, ErrVersementNotFound)
}

func TestLedgerBoundHoldsAfterEveryAcceptedOp(t *testing.T) {
	now := fixedClock(date("2024-05-15"))
	ledger := NewLedger(nil, now)
	const due = 50.0

	for i := 0; i < 100; i++ {
		if err := ledger.Add(due); err != nil {
			break
		}
		require.LessOrEqual(t, ledger.TotalPaid(), due)
	}
	for seq := 1; seq <= len(ledger.Entries()); seq++ {
		_ = ledger.UpdateAmount(seq, 2.5, due)
		require.LessOrEqual(t, ledger.TotalPaid(), due)
	}
}

func TestLedgerLockRespectsClock(t *testing.T) {
	// May entries edited in June are locked, whatever the input
	now := fixedClock(date("2024-06-03"))
	ledger := NewLedger([]Versement{
		{Seq: 1, Amount: 300, Date: date("2024-05-02")},
		{Seq: 2, Amount: 300, Date: date("2024-05-10")},
	}, now)

	require.ErrorIs(t, ledger.Remove(1), ErrVersementLocked)
	require.ErrorIs(t, ledger.UpdateAmount(1, 100, 900), ErrVersementLocked)
	require.ErrorIs(t, ledger.UpdateDate(2, date("2024-06-05")), ErrVersementLocked)
	// rejected as no-ops: list unchanged
	require.Len(t, ledger.Entries(), 2)
	require.Equal(t, 600.0, ledger.TotalPaid())
	require.False(t, ledger.Editable(1))
}

func TestLedgerUpdateDateStaysInCurrentMonth(t *testing.T) {
	now := fixedClock(date("2024-05-15"))
	ledger := NewLedger([]Versement{{Seq: 1, Amount: 300, Date: date("2024-05-02")}}, now)

	require.NoError(t, ledger.UpdateDate(1, date("2024-05-20")))
	require.Equal(t, date("2024-05-20"), ledger.Entries()[0].Date)

	err := ledger.UpdateDate(1, date("2024-04-30"))
	require.ErrorIs(t, err, ErrOutsideCurrentMonth)
}

func TestLedgerRemoveRenumbers(t *testing.T) {
	now := fixedClock(date("2024-05-15"))
	ledger := NewLedger([]Versement{
		{Seq: 1, Amount: 100, Date: date("2024-05-02")},
		{Seq: 2, Amount: 200, Date: date("2024-05-10")},
		{Seq: 3, Amount: 300, Date: date("2024-05-12")},
	}, now)

	require.NoError(t, ledger.Remove(2))
	entries := ledger.Entries()
	require.Len(t, entries, 2)
	for i, v := range entries {
		require.Equal(t, i+1, v.Seq)
	}
	// relative order preserved
	require.Equal(t, 100.0, entries[0].Amount)
	require.Equal(t, 300.0, entries[1].Amount)
}

func TestLedgerClearSettlesRemainder(t *testing.T) {
	now := fixedClock(date("2024-05-15"))
	ledger := NewLedger([]Versement{{Seq: 1, Amount: 349.99, Date: date("2024-05-02")}}, now)

	require.NoError(t, ledger.Clear(900))
	entries := ledger.Entries()
	require.Len(t, entries, 2)
	require.Equal(t, 550.01, entries[1].Amount)
	require.Equal(t, 900.0, ledger.TotalPaid())

	require.ErrorIs(t, ledger.Clear(900), ErrNothingOutstanding)
}

func TestLedgerOpenSubset(t *testing.T) {
	now := fixedClock(date("2024-06-03"))
	ledger := NewLedger([]Versement{
		{Seq: 1, Amount: 300, Date: date("2024-05-02")},
		{Seq: 2, Amount: 100, Date: date("2024-06-01")},
	}, now)

	open := ledger.Open()
	require.Len(t, open, 1)
	require.Equal(t, 2, open[0].Seq)
}

func TestValidateProposedLedger(t *testing.T) {
	now := fixedClock(date("2024-06-10"))
	committed := []Versement{
		{Seq: 1, Amount: 300, Date: date("2024-05-02")},
		{Seq: 2, Amount: 100, Date: date("2024-06-01")},
	}

	// open entry edited, locked entry untouched
	ok := []Versement{
		{Seq: 1, Amount: 300, Date: date("2024-05-02")},
		{Seq: 2, Amount: 150, Date: date("2024-06-01")},
	}
	require.NoError(t, ValidateProposedLedger(committed, ok, now))

	// locked entry dropped
	dropped := []Versement{{Seq: 1, Amount: 150, Date: date("2024-06-01")}}
	require.ErrorIs(t, ValidateProposedLedger(committed, dropped, now), ErrVersementLocked)

	// locked entry amount modified
	tampered := []Versement{
		{Seq: 1, Amount: 999, Date: date("2024-05-02")},
		{Seq: 2, Amount: 100, Date: date("2024-06-01")},
	}
	require.ErrorIs(t, ValidateProposedLedger(committed, tampered, now), ErrVersementLocked)

	// backdated insertion
	backdated := []Versement{
		{Seq: 1, Amount: 300, Date: date("2024-05-02")},
		{Seq: 2, Amount: 100, Date: date("2024-06-01")},
		{Seq: 3, Amount: 50, Date: date("2024-04-15")},
	}
	require.ErrorIs(t, ValidateProposedLedger(committed, backdated, now), ErrVersementLocked)

	// gap in sequence numbers
	gap := []Versement{
		{Seq: 1, Amount: 300, Date: date("2024-05-02")},
		{Seq: 3, Amount: 100, Date: date("2024-06-01")},
	}
	require.ErrorIs(t, ValidateProposedLedger(committed, gap, now), ErrVersementNotFound)
}
