package reconcile

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestReconcileSets tests exact, fuzzy and unmatched handling of two in-memory sets.
func TestReconcileSets(t *testing.T) {
	exactA := testRecord("E1", "10.00")

	fuzzySwitch := testRecord("F1", "20.00")
	fuzzyNetwork := testRecord("F1", "20.00")
	fuzzyNetwork.TransactionTime = "10:01:00"
	fuzzyNetwork.ResponseCode = "05"

	onlySwitch := testRecord("S1", "30.00")
	onlyNetwork := testRecord("N1", "40.00")
	onlyNetwork.TransactionDate = "2024-04-01"

	res := ReconcileSets(
		[]TransactionRecord{exactA, fuzzySwitch, onlySwitch, exactA},
		[]TransactionRecord{exactA, fuzzyNetwork, onlyNetwork},
		NewMatcher(DefaultOptions()),
	)

	assert.Equal(t, 1, res.Summary.ExactMatches)
	assert.Equal(t, 1, res.Summary.FuzzyMatches)
	assert.Equal(t, 2, res.Summary.UnmatchedSource)
	assert.Equal(t, 1, res.Summary.UnmatchedTarget)
	assert.Equal(t, 4, res.Summary.SourceTotal)
	assert.Len(t, res.Pairs, 2)

	assert.Equal(t, []string{"E1"}, idsOf(res.Discrepancies, KindDuplicateTransaction))
	assert.Equal(t, []string{"F1"}, idsOf(res.Discrepancies, KindResponseCodeMismatch))
	assert.ElementsMatch(t, []string{"S1", "E1"}, idsOf(res.Discrepancies, KindMissingInNetwork))
	assert.Equal(t, []string{"N1"}, idsOf(res.Discrepancies, KindMissingInDatabase))
	assert.Equal(t, len(res.Discrepancies), res.Summary.Discrepancies)
}

// TestReconcileSets_Invalid tests that unparsable records become processing errors.
func TestReconcileSets_Invalid(t *testing.T) {
	res := ReconcileSets([]TransactionRecord{testRecord("B1", "oops")}, nil, NewMatcher(DefaultOptions()))

	assert.Equal(t, 1, res.Summary.Invalid)
	assert.Equal(t, []string{"B1"}, idsOf(res.Discrepancies, KindProcessingError))
	assert.Empty(t, res.Pairs)
}

// TestWriteMatchReport tests the textual match report.
func TestWriteMatchReport(t *testing.T) {
	var buf bytes.Buffer
	err := WriteMatchReport(&buf, []MatchedPair{
		{Source: testRecord("A", "1"), Target: testRecord("B", "1"), Score: 0.875},
	})
	require.NoError(t, err)
	assert.Equal(t, "Match report: 1 pairs\nMatch score: 87.50%, Source: A, Target: B\n", buf.String())
}
