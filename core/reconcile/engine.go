package reconcile

import (
	"fmt"
	"io"
)

// SetResult is the outcome of ReconcileSets.
type SetResult struct {
	Pairs         []MatchedPair `json:"pairs"`
	Discrepancies []Discrepancy `json:"discrepancies"`
	Summary       MatchSummary  `json:"summary"`
}

// ReconcileSets reconciles two fully loaded sets, switch against network.
// Records are first paired exactly, the residuals fuzzily. Every pair is
// classified with Compare; unmatched switch records are Missing in Network,
// unmatched network records Missing in Database. Duplicate ids on either
// side are reported once per id.
func ReconcileSets(switchSet, networkSet []TransactionRecord, m *Matcher) SetResult {
	var res SetResult
	res.Summary.SourceTotal = len(switchSet)
	res.Summary.TargetTotal = len(networkSet)

	res.Discrepancies = append(res.Discrepancies, DetectDuplicates(switchSet)...)
	res.Discrepancies = append(res.Discrepancies, DetectDuplicates(networkSet)...)

	exact := m.ExactMatch(switchSet, networkSet)
	fuzzy := m.FuzzyMatch(exact.SourceResidual, exact.TargetResidual)

	res.Summary.ExactMatches = len(exact.Pairs)
	res.Summary.FuzzyMatches = len(fuzzy.Pairs)
	res.Pairs = append(append(res.Pairs, exact.Pairs...), fuzzy.Pairs...)

	// Exact residuals are already valid, so fuzzy rejects nothing new.
	for _, ve := range exact.Invalid {
		res.Discrepancies = append(res.Discrepancies, NewProcessingError(ve.TransactionID, ve))
	}
	res.Summary.Invalid = len(exact.Invalid)

	for _, pair := range res.Pairs {
		ds, err := Compare(pair.Source, pair.Target)
		if err != nil {
			res.Discrepancies = append(res.Discrepancies, NewProcessingError(pair.Source.TransactionID, err))
			continue
		}
		res.Discrepancies = append(res.Discrepancies, ds...)
	}

	for _, rec := range fuzzy.SourceResidual {
		res.Discrepancies = append(res.Discrepancies, Missing(rec.TransactionID, SwitchToNetwork))
	}
	for _, rec := range fuzzy.TargetResidual {
		res.Discrepancies = append(res.Discrepancies, Missing(rec.TransactionID, FileToLedger))
	}
	res.Summary.UnmatchedSource = len(fuzzy.SourceResidual)
	res.Summary.UnmatchedTarget = len(fuzzy.TargetResidual)
	res.Summary.Discrepancies = len(res.Discrepancies)

	return res
}

// WriteMatchReport writes one line per matched pair.
func WriteMatchReport(w io.Writer, pairs []MatchedPair) error {
	if _, err := fmt.Fprintf(w, "Match report: %d pairs\n", len(pairs)); err != nil {
		return err
	}
	for _, p := range pairs {
		_, err := fmt.Fprintf(w, "Match score: %.2f%%, Source: %s, Target: %s\n",
			p.Score*100, p.Source.TransactionID, p.Target.TransactionID)
		if err != nil {
			return err
		}
	}
	return nil
}
