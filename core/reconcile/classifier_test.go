package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCompare_CollectsAll tests that every mismatch is returned in the fixed order.
func TestCompare_CollectsAll(t *testing.T) {
	file := testRecord("T1", "10.00")
	ledger := testRecord("T1", "12.00")
	ledger.ResponseCode = "05"
	ledger.AuthorizationCode = "ZZZ"
	ledger.TransactionDate = "2024-03-02"
	ledger.RRN = "OTHER"
	ledger.TransactionType = "REFUND"

	ds, err := Compare(file, ledger)
	require.NoError(t, err)
	assert.Equal(t, []Kind{
		KindAmountMismatch,
		KindResponseCodeMismatch,
		KindAuthorizationCodeMismatch,
		KindTransactionDateMismatch,
		KindRRNMismatch,
		KindTransactionTypeMismatch,
	}, kinds(ds))

	require.NotNil(t, ds[0].SourceAmount)
	require.NotNil(t, ds[0].TargetAmount)
	assert.Equal(t, "10", ds[0].SourceAmount.String())
	assert.Equal(t, "12", ds[0].TargetAmount.String())
	diff, ok := ds[0].Difference()
	assert.True(t, ok)
	assert.Equal(t, "-2", diff.String())
}

// TestCompare_AmountAndResponseCode tests that both mismatches are reported, not just the first.
func TestCompare_AmountAndResponseCode(t *testing.T) {
	file := testRecord("T1", "10.00")
	ledger := testRecord("T1", "10.01")
	ledger.ResponseCode = "51"

	ds, err := Compare(file, ledger)
	require.NoError(t, err)
	assert.Equal(t, []Kind{KindAmountMismatch, KindResponseCodeMismatch}, kinds(ds))
}

// TestCompare_Equal tests that equivalent records produce nothing.
func TestCompare_Equal(t *testing.T) {
	ledger := testRecord("T1", "10.0")
	ledger.ResponseCode = " 00 "

	ds, err := Compare(testRecord("T1", "10.00"), ledger)
	require.NoError(t, err)
	assert.Empty(t, ds)
}

// TestCompare_InvalidAmount tests that an unparsable amount is a validation error.
func TestCompare_InvalidAmount(t *testing.T) {
	_, err := Compare(testRecord("T1", "10.00"), testRecord("T1", "abc"))
	assert.ErrorIs(t, err, ErrValidation)
}

// TestMissing tests the direction to kind mapping.
func TestMissing(t *testing.T) {
	assert.Equal(t, KindMissingInDatabase, Missing("A", FileToLedger).Kind)
	assert.Equal(t, KindMissingInFile, Missing("A", LedgerToFile).Kind)
	assert.Equal(t, KindMissingInNetwork, Missing("A", SwitchToNetwork).Kind)
	assert.Nil(t, Missing("A", LedgerToFile).SourceAmount)
}

// TestDetectDuplicates tests one discrepancy per duplicated id.
func TestDetectDuplicates(t *testing.T) {
	records := []TransactionRecord{
		testRecord("T1", "1"), testRecord("T1", "1"), testRecord("T1", "1"), testRecord("T2", "1"),
	}

	ds := DetectDuplicates(records)
	require.Len(t, ds, 1)
	assert.Equal(t, "T1", ds[0].TransactionID)
	assert.Equal(t, KindDuplicateTransaction, ds[0].Kind)
}

// TestKinds tests the closed kind set.
func TestKinds(t *testing.T) {
	assert.Len(t, Kinds, 11)
	assert.True(t, KindRRNMismatch.Valid())
	assert.False(t, Kind("Something Else").Valid())

	d := NewProcessingError("T1", assert.AnError)
	assert.Equal(t, "Processing Error: "+assert.AnError.Error(), d.Label())
	assert.Equal(t, "Missing in File", Missing("T1", LedgerToFile).Label())
}
