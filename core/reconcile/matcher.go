package reconcile

import (
	"errors"
	"math"
	"slices"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

const (
	idWeight     = 0.30
	timeWeight   = 0.35
	amountWeight = 0.35
)

var hundred = decimal.NewFromInt(100)

// MatchResult is the output of one matching call.
type MatchResult struct {
	// Pairs are the matched records.
	Pairs []MatchedPair

	// SourceResidual and TargetResidual are the valid records left unmatched,
	// in input order.
	SourceResidual []TransactionRecord
	TargetResidual []TransactionRecord

	// Invalid lists records excluded because their amount or timestamp
	// could not be interpreted.
	Invalid []*ValidationError
}

// Matcher pairs records of two sets, exactly by key or fuzzily by score.
type Matcher struct {
	timeTolerance   float64
	amountTolerance float64
	threshold       float64
}

// NewMatcher creates a matcher from the tolerances in opts.
func NewMatcher(opts Options) *Matcher {
	return &Matcher{
		timeTolerance:   opts.TimeToleranceMinutes,
		amountTolerance: opts.AmountTolerancePercent,
		threshold:       opts.MatchThreshold,
	}
}

// keyed is a record with its typed views resolved once.
type keyed struct {
	rec    TransactionRecord
	ts     time.Time
	amount decimal.Decimal
	minor  int64
}

func resolve(rec TransactionRecord) (keyed, error) {
	amount, err := rec.Decimal()
	if err != nil {
		return keyed{}, err
	}
	ts, err := rec.Timestamp()
	if err != nil {
		return keyed{}, err
	}
	return keyed{
		rec:    rec,
		ts:     ts,
		amount: amount,
		minor:  amount.Shift(2).Round(0).IntPart(),
	}, nil
}

func (k keyed) exactKey() string {
	return k.rec.TransactionID + "|" + k.ts.Format("20060102T150405") + "|" + strconv.FormatInt(k.minor, 10)
}

func resolveAll(records []TransactionRecord, invalid *[]*ValidationError) []keyed {
	out := make([]keyed, 0, len(records))
	for _, r := range records {
		k, err := resolve(r)
		if err != nil {
			var ve *ValidationError
			if errors.As(err, &ve) {
				*invalid = append(*invalid, ve)
			}
			continue
		}
		out = append(out, k)
	}
	return out
}

// ExactMatch pairs records whose id, timestamp and amount in minor units
// are identical. A matched target is consumed and cannot pair again.
func (m *Matcher) ExactMatch(source, target []TransactionRecord) MatchResult {
	var res MatchResult
	src := resolveAll(source, &res.Invalid)
	dst := resolveAll(target, &res.Invalid)

	// Targets sharing a key queue up so duplicates are consumed one at a time.
	index := make(map[string][]int, len(dst))
	for i, k := range dst {
		key := k.exactKey()
		index[key] = append(index[key], i)
	}

	used := make([]bool, len(dst))
	for _, s := range src {
		key := s.exactKey()
		queue := index[key]
		if len(queue) == 0 {
			res.SourceResidual = append(res.SourceResidual, s.rec)
			continue
		}
		i := queue[0]
		if len(queue) == 1 {
			delete(index, key)
		} else {
			index[key] = queue[1:]
		}
		used[i] = true
		res.Pairs = append(res.Pairs, MatchedPair{Source: s.rec, Target: dst[i].rec, Score: 1.0})
	}
	for i, k := range dst {
		if !used[i] {
			res.TargetResidual = append(res.TargetResidual, k.rec)
		}
	}
	return res
}

// FuzzyMatch pairs each source record with the best scoring target of the
// same calendar date, if that score reaches the threshold. Matching is
// greedy: a chosen target leaves its bucket immediately and ties go to the
// target that comes first in the bucket.
func (m *Matcher) FuzzyMatch(source, target []TransactionRecord) MatchResult {
	var res MatchResult
	src := resolveAll(source, &res.Invalid)
	dst := resolveAll(target, &res.Invalid)

	buckets := make(map[string][]int)
	for i, k := range dst {
		day := k.ts.Format(DateLayout)
		buckets[day] = append(buckets[day], i)
	}

	used := make([]bool, len(dst))
	for _, s := range src {
		day := s.ts.Format(DateLayout)
		bucket := buckets[day]

		best, bestScore := -1, -1.0
		for pos, i := range bucket {
			score := m.score(s, dst[i])
			if score >= m.threshold && score > bestScore {
				best, bestScore = pos, score
			}
		}
		if best < 0 {
			res.SourceResidual = append(res.SourceResidual, s.rec)
			continue
		}

		i := bucket[best]
		buckets[day] = slices.Delete(bucket, best, best+1)
		used[i] = true
		res.Pairs = append(res.Pairs, MatchedPair{Source: s.rec, Target: dst[i].rec, Score: bestScore})
	}
	for i, k := range dst {
		if !used[i] {
			res.TargetResidual = append(res.TargetResidual, k.rec)
		}
	}
	return res
}

// Score returns the fuzzy similarity of a and b in [0,1].
func (m *Matcher) Score(a, b TransactionRecord) (float64, error) {
	ka, err := resolve(a)
	if err != nil {
		return 0, err
	}
	kb, err := resolve(b)
	if err != nil {
		return 0, err
	}
	return m.score(ka, kb), nil
}

func (m *Matcher) score(a, b keyed) float64 {
	var score float64
	if a.rec.TransactionID == b.rec.TransactionID {
		score += idWeight
	}

	minutes := math.Abs(float64(b.ts.Sub(a.ts) / time.Minute))
	score += timeWeight * proximity(minutes, m.timeTolerance)

	score += amountWeight * proximity(amountDiffPercent(a.amount, b.amount), m.amountTolerance)
	return score
}

// proximity maps a difference onto [0,1] within tolerance. A non-positive
// tolerance only credits an exact match.
func proximity(diff, tolerance float64) float64 {
	if tolerance <= 0 {
		if diff == 0 {
			return 1
		}
		return 0
	}
	if diff > tolerance {
		return 0
	}
	return math.Max(0, 1-diff/tolerance)
}

// amountDiffPercent is |source-target| relative to source, in percent.
func amountDiffPercent(source, target decimal.Decimal) float64 {
	if source.IsZero() {
		if target.IsZero() {
			return 0
		}
		return math.Inf(1)
	}
	pct, _ := source.Sub(target).Abs().Div(source.Abs()).Mul(hundred).Float64()
	return pct
}
