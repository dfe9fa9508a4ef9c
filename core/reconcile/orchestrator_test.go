package reconcile

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func acceptingSink() *mockSink {
	sink := new(mockSink)
	sink.On("Render", mock.Anything, mock.Anything).Return(nil)
	return sink
}

// TestOrchestrator_RoundTrip tests a fully mirrored ledger yields no discrepancies.
func TestOrchestrator_RoundTrip(t *testing.T) {
	records := testRecords(1000)
	path := writeFeed(t, records)
	gateway := newMemGateway(records)
	sink := acceptingSink()

	orch := NewOrchestrator(Open(path, NewDelimitedFormat(",", FieldCount), nil), gateway, sink, Options{BatchSize: 100, Workers: 4}, nil)
	res, err := orch.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, PhaseDone, res.Phase)
	assert.True(t, res.Rendered)
	require.NotNil(t, res.Report)
	assert.Empty(t, res.Report.Forward)
	assert.Empty(t, res.Report.Backward)
	assert.Equal(t, path, res.Report.FilePath)

	s := res.Stats
	assert.Equal(t, int64(1000), s.Processed)
	assert.Equal(t, int64(1000), s.Matched)
	assert.Equal(t, int64(1000), s.TotalFileRecords)
	assert.Equal(t, int64(1000), s.TotalLedgerRecords)
	assert.Equal(t, 10, gateway.calls)
	assert.InDelta(t, 100.0, s.MatchRate(), 1e-9)
	sink.AssertNumberOfCalls(t, "Render", 1)
}

// TestOrchestrator_MissingInFile tests a ledger-only id is reported backward only.
func TestOrchestrator_MissingInFile(t *testing.T) {
	records := testRecords(20)
	ledger := append(append([]TransactionRecord{}, records...), testRecord("X1", "9.99"))

	orch := NewOrchestrator(&SliceSource{Records: records}, newMemGateway(ledger), acceptingSink(), Options{BatchSize: 7}, nil)
	res, err := orch.Run(context.Background())

	require.NoError(t, err)
	require.Len(t, res.Report.Backward, 1)
	assert.Equal(t, "X1", res.Report.Backward[0].TransactionID)
	assert.Equal(t, KindMissingInFile, res.Report.Backward[0].Kind)
	for _, d := range res.Report.Forward {
		assert.NotEqual(t, "X1", d.TransactionID)
	}
	assert.Equal(t, int64(21), res.Stats.TotalLedgerRecords)
}

// TestOrchestrator_Completeness tests that every file record is accounted for exactly once.
func TestOrchestrator_Completeness(t *testing.T) {
	records := testRecords(30)
	records[3].Amount = "not-a-number"

	ledger := append([]TransactionRecord{}, records[5:]...)
	ledger[0].ResponseCode = "05" // TXN000005
	ledger[1].Amount = "1.23"     // TXN000006
	ledger[1].RRN = "X"

	orch := NewOrchestrator(&SliceSource{Records: records}, newMemGateway(ledger), acceptingSink(), Options{BatchSize: 4, Workers: 3}, nil)
	res, err := orch.Run(context.Background())
	require.NoError(t, err)

	fwd := res.Report.Forward
	assert.ElementsMatch(t, []string{"TXN000000", "TXN000001", "TXN000002", "TXN000003", "TXN000004"}, idsOf(fwd, KindMissingInDatabase))
	assert.Equal(t, []string{"TXN000005"}, idsOf(fwd, KindResponseCodeMismatch))
	assert.Equal(t, []string{"TXN000006"}, idsOf(fwd, KindAmountMismatch))
	assert.Equal(t, []string{"TXN000006"}, idsOf(fwd, KindRRNMismatch))
	assert.Empty(t, idsOf(fwd, KindProcessingError))

	assert.Equal(t, int64(30), res.Stats.Processed)
	assert.Equal(t, int64(23), res.Stats.Matched)
}

// TestOrchestrator_ValidationFailure tests that an unparsable ledger amount is contained.
func TestOrchestrator_ValidationFailure(t *testing.T) {
	records := testRecords(5)
	ledger := append([]TransactionRecord{}, records...)
	ledger[2].Amount = "??"

	orch := NewOrchestrator(&SliceSource{Records: records}, newMemGateway(ledger), acceptingSink(), Options{}, nil)
	res, err := orch.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"TXN000002"}, idsOf(res.Report.Forward, KindProcessingError))
	assert.Equal(t, int64(1), res.Stats.ValidationFailures)
	assert.Equal(t, int64(4), res.Stats.Matched)
	assert.Equal(t, int64(5), res.Stats.Processed)
}

// TestOrchestrator_Duplicates tests duplicate ids are reported once during indexing.
func TestOrchestrator_Duplicates(t *testing.T) {
	r := testRecord("T1", "1.00")
	records := []TransactionRecord{r, r, r, testRecord("T2", "2.00")}

	orch := NewOrchestrator(&SliceSource{Records: records}, newMemGateway(records[2:]), acceptingSink(), Options{BatchSize: 1}, nil)
	res, err := orch.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"T1"}, idsOf(res.Report.Forward, KindDuplicateTransaction))
	assert.Equal(t, int64(4), res.Stats.TotalFileRecords)
	assert.Equal(t, int64(4), res.Stats.Processed)
}

// TestOrchestrator_LookupFailure tests a failing batch lookup becomes processing errors.
func TestOrchestrator_LookupFailure(t *testing.T) {
	records := testRecords(6)
	gateway := new(mockGateway)
	gateway.On("FindByIDs", mock.Anything, []string{"TXN000000", "TXN000001", "TXN000002"}).
		Return(nil, errors.New("connection reset"))
	gateway.On("FindByIDs", mock.Anything, []string{"TXN000003", "TXN000004", "TXN000005"}).
		Return(records[3:], nil)
	gateway.On("FindAll", mock.Anything).Return(records, nil)

	orch := NewOrchestrator(&SliceSource{Records: records}, gateway, acceptingSink(), Options{BatchSize: 3, Workers: 1}, nil)
	res, err := orch.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, PhaseDone, res.Phase)
	assert.ElementsMatch(t, []string{"TXN000000", "TXN000001", "TXN000002"}, idsOf(res.Report.Forward, KindProcessingError))
	for _, d := range res.Report.Forward {
		assert.Contains(t, d.Detail, "connection reset")
	}
	assert.Equal(t, int64(1), res.Stats.LookupFailures)
	assert.Equal(t, int64(3), res.Stats.Matched)
	assert.Equal(t, int64(6), res.Stats.Processed)
	gateway.AssertExpectations(t)
}

// TestOrchestrator_RecoversPanics tests a panicking gateway does not abort the run.
func TestOrchestrator_RecoversPanics(t *testing.T) {
	records := testRecords(2)
	gateway := new(mockGateway)
	gateway.On("FindByIDs", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		panic("driver bug")
	})
	gateway.On("FindAll", mock.Anything).Return(records, nil)

	orch := NewOrchestrator(&SliceSource{Records: records}, gateway, acceptingSink(), Options{}, nil)
	res, err := orch.Run(context.Background())

	require.NoError(t, err)
	require.Len(t, res.Report.Forward, 2)
	assert.Contains(t, res.Report.Forward[0].Detail, "driver bug")
}

// TestOrchestrator_ConfigurationErrors tests INIT failures.
func TestOrchestrator_ConfigurationErrors(t *testing.T) {
	tests := []struct {
		name string
		orch *Orchestrator
	}{
		{"negative batch size", NewOrchestrator(&SliceSource{}, newMemGateway(nil), acceptingSink(), Options{BatchSize: -1}, nil)},
		{"bad threshold", NewOrchestrator(&SliceSource{}, newMemGateway(nil), acceptingSink(), Options{MatchThreshold: 2}, nil)},
		{"unreadable file", NewOrchestrator(Open("/nonexistent/feed.csv", NewDelimitedFormat(",", FieldCount), nil), newMemGateway(nil), acceptingSink(), Options{}, nil)},
		{"no sink", NewOrchestrator(&SliceSource{}, newMemGateway(nil), nil, Options{}, nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := tt.orch.Run(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrConfiguration)

			var pe *PhaseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, PhaseInit, pe.Phase)
			assert.Equal(t, PhaseFailed, res.Phase)
			assert.Nil(t, res.Report)
		})
	}
}

// TestOrchestrator_ReportFailureIsRetryable tests that results survive a failed render.
func TestOrchestrator_ReportFailureIsRetryable(t *testing.T) {
	records := testRecords(10)
	sink := new(mockSink)
	sink.On("Render", mock.Anything, mock.Anything).Return(errors.New("disk full")).Once()
	sink.On("Render", mock.Anything, mock.Anything).Return(nil).Once()

	orch := NewOrchestrator(&SliceSource{Records: records}, newMemGateway(records[1:]), sink, Options{}, nil)
	res, err := orch.Run(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrReportGeneration)
	var rge *ReportGenerationError
	require.ErrorAs(t, err, &rge)
	assert.Equal(t, "report.xlsx", rge.Path)
	var pe *PhaseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, PhaseReport, pe.Phase)

	assert.Equal(t, PhaseFailed, res.Phase)
	require.NotNil(t, res.Report)
	assert.Equal(t, []string{"TXN000000"}, idsOf(res.Report.Forward, KindMissingInDatabase))

	require.NoError(t, orch.Rerender(context.Background(), res))
	assert.Equal(t, PhaseDone, res.Phase)
	assert.True(t, res.Rendered)
	sink.AssertExpectations(t)
}

// blockingGateway holds every batch lookup until released.
type blockingGateway struct {
	*memGateway
	started chan struct{}
	release chan struct{}
}

func (g *blockingGateway) FindByIDs(ctx context.Context, ids []string) ([]TransactionRecord, error) {
	select {
	case g.started <- struct{}{}:
	default:
	}
	<-g.release
	return g.memGateway.FindByIDs(ctx, ids)
}

// TestOrchestrator_Cancel tests that cancellation drains in-flight batches
// and keeps their discrepancies in an unrendered partial report.
func TestOrchestrator_Cancel(t *testing.T) {
	records := testRecords(100)
	gateway := &blockingGateway{
		memGateway: newMemGateway(nil),
		started:    make(chan struct{}, 1),
		release:    make(chan struct{}),
	}
	sink := new(mockSink)

	orch := NewOrchestrator(&SliceSource{Records: records}, gateway, sink, Options{BatchSize: 10, Workers: 1}, nil)
	handle := orch.Start(context.Background(), "run-1")
	assert.Equal(t, "run-1", handle.ID())

	select {
	case <-gateway.started:
	case <-time.After(5 * time.Second):
		t.Fatal("forward phase never started")
	}
	assert.Equal(t, PhaseForward, handle.Phase())

	handle.Cancel()
	close(gateway.release)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res, err := handle.Wait(ctx)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, PhaseCancelled, res.Phase)
	assert.Equal(t, PhaseCancelled, handle.Phase())

	// Only whole batches were processed, and not all of them.
	assert.Positive(t, res.Stats.Processed)
	assert.Less(t, res.Stats.Processed, int64(100))
	assert.Zero(t, res.Stats.Processed%10)
	assert.Zero(t, res.Stats.Matched)

	// Every drained record is reported as missing from the ledger.
	require.NotNil(t, res.Report)
	assert.False(t, res.Rendered)
	assert.False(t, res.Renderable())
	assert.Len(t, res.Report.Forward, int(res.Stats.Processed))
	for _, d := range res.Report.Forward {
		assert.Equal(t, KindMissingInDatabase, d.Kind)
	}
	assert.Empty(t, res.Report.Backward)
	assert.Equal(t, res.Stats, res.Report.Stats)

	assert.ErrorIs(t, orch.Rerender(context.Background(), res), ErrReportGeneration)
	sink.AssertNotCalled(t, "Render", mock.Anything, mock.Anything)
}

// cancellingSink cancels the run while the report is being written and
// fails the way a sink interrupted mid-write does.
type cancellingSink struct {
	cancel context.CancelFunc
	calls  int
}

func (s *cancellingSink) Render(ctx context.Context, _ *Report) error {
	s.calls++
	s.cancel()
	return &ReportGenerationError{Path: s.Target(), Err: ctx.Err()}
}

func (s *cancellingSink) Target() string {
	return "report.xlsx"
}

// TestOrchestrator_CancelDuringReport tests that a run cancelled while its
// report is rendered ends CANCELLED instead of FAILED.
func TestOrchestrator_CancelDuringReport(t *testing.T) {
	records := testRecords(20)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sink := &cancellingSink{cancel: cancel}

	orch := NewOrchestrator(&SliceSource{Records: records}, newMemGateway(records), sink, Options{BatchSize: 5, Workers: 2}, nil)
	res, err := orch.Run(ctx)

	assert.ErrorIs(t, err, ErrCancelled)
	assert.NotErrorIs(t, err, ErrReportGeneration)
	var pe *PhaseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, PhaseReport, pe.Phase)
	assert.Equal(t, PhaseCancelled, res.Phase)
	assert.False(t, res.Rendered)
	assert.Equal(t, int64(20), res.Stats.Matched)
	assert.Equal(t, 1, sink.calls)
}

// TestOrchestrator_CancelledBeforeReport tests that a context cancelled
// before the report step never reaches the sink.
func TestOrchestrator_CancelledBeforeReport(t *testing.T) {
	records := testRecords(20)
	ctx, cancel := context.WithCancel(context.Background())
	gateway := &cancellingGateway{memGateway: newMemGateway(records), cancel: cancel}
	sink := new(mockSink)

	orch := NewOrchestrator(&SliceSource{Records: records}, gateway, sink, Options{BatchSize: 5, Workers: 2}, nil)
	res, err := orch.Run(ctx)

	assert.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, PhaseCancelled, res.Phase)
	require.NotNil(t, res.Report)
	assert.Equal(t, int64(20), res.Stats.Matched)
	sink.AssertNotCalled(t, "Render", mock.Anything, mock.Anything)
}

// cancellingGateway cancels its run after serving the full ledger.
type cancellingGateway struct {
	*memGateway
	cancel context.CancelFunc
}

func (g *cancellingGateway) FindAll(ctx context.Context) ([]TransactionRecord, error) {
	defer g.cancel()
	return g.memGateway.FindAll(ctx)
}

// TestOrchestrator_MalformedLine tests that a truncated line among valid
// lines is dropped and counted without stopping the run.
func TestOrchestrator_MalformedLine(t *testing.T) {
	records := testRecords(100)
	path := writeFeed(t, records[:60])
	appendLines(t, path, "PURCHASE,TRUNCATED,4111,1.00")
	appendLines(t, path, feedLines(records[60:])...)

	orch := NewOrchestrator(Open(path, NewDelimitedFormat(",", FieldCount), nil), newMemGateway(records), acceptingSink(), Options{BatchSize: 25, Workers: 4}, nil)
	res, err := orch.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, PhaseDone, res.Phase)
	assert.Equal(t, int64(1), res.Stats.Malformed)
	assert.Equal(t, int64(100), res.Stats.TotalFileRecords)
	assert.Equal(t, int64(100), res.Stats.Processed)
	assert.Equal(t, int64(100), res.Stats.Matched)
	assert.Equal(t, int64(1), res.Report.Stats.Malformed)
	assert.Empty(t, res.Report.Forward)
	assert.Empty(t, res.Report.Backward)
	assert.Equal(t, path, res.Report.FilePath)
}

// TestOrchestrator_OverlongLine tests that a line past the line size limit
// is dropped like any other malformed line.
func TestOrchestrator_OverlongLine(t *testing.T) {
	records := testRecords(100)
	path := writeFeed(t, records[:50])
	appendLines(t, path, "PURCHASE,HUGE,"+strings.Repeat("x", 2*maxLineSize))
	appendLines(t, path, feedLines(records[50:])...)

	orch := NewOrchestrator(Open(path, NewDelimitedFormat(",", FieldCount), nil), newMemGateway(records), acceptingSink(), Options{BatchSize: 10, Workers: 2}, nil)
	res, err := orch.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, PhaseDone, res.Phase)
	assert.Equal(t, int64(1), res.Stats.Malformed)
	assert.Equal(t, int64(100), res.Stats.Processed)
	assert.Equal(t, int64(100), res.Stats.Matched)
}

// TestOrchestrator_LogsCarryRunID tests that every run log line is tagged
// with the run id.
func TestOrchestrator_LogsCarryRunID(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	records := testRecords(5)

	orch := NewOrchestrator(&SliceSource{Records: records}, newMemGateway(records), acceptingSink(), Options{BatchSize: 2, Workers: 1}, zap.New(core))
	handle := orch.Start(context.Background(), "run-7")
	_, err := handle.Wait(context.Background())
	require.NoError(t, err)

	require.NotZero(t, logs.Len())
	for _, entry := range logs.All() {
		assert.Equal(t, "run-7", entry.ContextMap()["run_id"], entry.Message)
	}
}
