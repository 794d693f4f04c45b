package storage

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	json "github.com/goccy/go-json"
	"github.com/mselser95/claimpool/internal/ledger"
	"github.com/mselser95/claimpool/internal/resolution"
	"github.com/mselser95/claimpool/internal/reward"
	"github.com/mselser95/claimpool/internal/testutil"
	"github.com/mselser95/claimpool/pkg/types"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func testSettlement(t *testing.T) (*resolution.SettlementRecord, types.ReputationRecord) {
	t.Helper()

	pool, stakes := testutil.CreateScenarioPool(7, true)
	breakdown, err := reward.Calculate(pool, stakes)
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}

	record := resolution.NewSettlementRecord(pool, 19_000_007, breakdown)
	rep := types.ReputationRecord{
		Participant:  testutil.Creator,
		Points:       200,
		TotalPools:   1,
		CorrectPools: 1,
		Tier:         types.TierAnalyst,
		Accuracy:     100,
	}
	return record, rep
}

func TestConsoleStorage_CommitSettlement(t *testing.T) {
	var out bytes.Buffer
	storage := NewConsoleStorageWriter(zaptest.NewLogger(t), &out)
	ctx := context.Background()
	record, rep := testSettlement(t)

	err := storage.CommitSettlement(ctx, record, rep)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	output := out.String()
	for _, want := range []string{"POOL SETTLED", "Creator reward:  823", "Tier:     Analyst", testutil.Creator.Hex()} {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %q", want)
		}
	}

	settled, _ := storage.HasSettlement(ctx, 7)
	if !settled {
		t.Error("expected pool 7 to be settled")
	}

	loaded, found, _ := storage.LoadReputation(ctx, testutil.Creator)
	if !found || loaded != rep {
		t.Errorf("expected stored reputation %+v, got %+v (found=%t)", rep, loaded, found)
	}

	stored, found, _ := storage.LoadSettlement(ctx, 7)
	if !found || stored.ID != record.ID {
		t.Error("expected settlement to be retrievable by pool id")
	}

	err = storage.CommitSettlement(ctx, record, rep)
	if !errors.Is(err, resolution.ErrAlreadySettled) {
		t.Errorf("expected ErrAlreadySettled on second commit, got %v", err)
	}
}

func TestConsoleStorage_WithProcessor(t *testing.T) {
	var out bytes.Buffer
	storage := NewConsoleStorageWriter(zaptest.NewLogger(t), &out)
	processor := resolution.New(resolution.Config{Logger: zaptest.NewLogger(t)}, storage)

	pool, stakes := testutil.CreateScenarioPool(3, false)
	event := &ledger.ResolutionEvent{
		PoolID: 3,
		Pool:   pool,
		Claim:  testutil.CreateResolvedClaim(pool.ClaimID, types.OutcomeNo),
		Stakes: stakes,
	}

	_, err := processor.Process(context.Background(), event)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(out.String(), "Pool:     3") {
		t.Error("expected pool 3 to be printed")
	}
}

func TestConsoleStorage_Close(t *testing.T) {
	storage := NewConsoleStorage(zap.NewNop())

	if err := storage.Check(context.Background()); err != nil {
		t.Errorf("expected no error on check, got %v", err)
	}
	if err := storage.Close(); err != nil {
		t.Errorf("expected no error on close, got %v", err)
	}
}

func newMockPostgres(t *testing.T) (*PostgresStorage, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return &PostgresStorage{db: db, logger: zaptest.NewLogger(t)}, mock
}

func TestPostgresStorage_CommitSettlement(t *testing.T) {
	storage, mock := newMockPostgres(t)
	record, rep := testSettlement(t)
	b := record.Breakdown

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO pool_settlements").
		WithArgs(
			record.ID, int64(7), int64(107), testutil.Creator.Hex(), int64(19_000_007), true,
			b.TotalPool, b.ProtocolFee, b.CreatorRewardTotal, b.DistributedToStakers,
			b.Remainder, false, sqlmock.AnyArg(), sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO reputation_records").
		WithArgs(testutil.Creator.Hex(), int64(200), int64(1), int64(1), int64(0), "Analyst", int64(100)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := storage.CommitSettlement(context.Background(), record, rep)
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPostgresStorage_CommitSettlement_Duplicate(t *testing.T) {
	storage, mock := newMockPostgres(t)
	record, rep := testSettlement(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO pool_settlements").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := storage.CommitSettlement(context.Background(), record, rep)
	if !errors.Is(err, resolution.ErrAlreadySettled) {
		t.Errorf("expected ErrAlreadySettled, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPostgresStorage_CommitSettlement_UpsertFails(t *testing.T) {
	storage, mock := newMockPostgres(t)
	record, rep := testSettlement(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO pool_settlements").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO reputation_records").WillReturnError(sqlmock.ErrCancelled)
	mock.ExpectRollback()

	err := storage.CommitSettlement(context.Background(), record, rep)
	if err == nil {
		t.Error("expected error, got nil")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPostgresStorage_HasSettlement(t *testing.T) {
	storage, mock := newMockPostgres(t)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	settled, err := storage.HasSettlement(context.Background(), 7)
	if err != nil || !settled {
		t.Errorf("expected settled=true, got %t (%v)", settled, err)
	}

	_, err = storage.HasSettlement(context.Background(), 1<<63)
	if !errors.Is(err, types.ErrOverflow) {
		t.Errorf("expected overflow for id beyond BIGINT, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPostgresStorage_LoadReputation(t *testing.T) {
	storage, mock := newMockPostgres(t)
	columns := []string{"points", "total_pools", "correct_pools", "wrong_pools", "tier", "accuracy"}

	mock.ExpectQuery("FROM reputation_records").
		WithArgs(testutil.Creator.Hex()).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(int64(2440), int64(12), int64(10), int64(2), "Master", int64(83)))
	mock.ExpectQuery("FROM reputation_records").
		WithArgs(testutil.Alice.Hex()).
		WillReturnRows(sqlmock.NewRows(columns))

	rec, found, err := storage.LoadReputation(context.Background(), testutil.Creator)
	if err != nil || !found {
		t.Fatalf("expected record, got found=%t err=%v", found, err)
	}
	if rec.Tier != types.TierMaster || rec.Points != 2440 || rec.Participant != testutil.Creator {
		t.Errorf("unexpected record %+v", rec)
	}

	_, found, err = storage.LoadReputation(context.Background(), testutil.Alice)
	if err != nil || found {
		t.Errorf("expected no record, got found=%t err=%v", found, err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPostgresStorage_LoadSettlement(t *testing.T) {
	storage, mock := newMockPostgres(t)
	record, _ := testSettlement(t)

	breakdown, err := json.Marshal(record.Breakdown)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	settledAt := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM pool_settlements").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "claim_id", "creator", "block_number", "breakdown", "settled_at"}).
			AddRow(record.ID, int64(107), testutil.Creator.Hex(), int64(19_000_007), breakdown, settledAt))

	loaded, found, err := storage.LoadSettlement(context.Background(), 7)
	if err != nil || !found {
		t.Fatalf("expected settlement, got found=%t err=%v", found, err)
	}
	if loaded.Breakdown.CreatorRewardTotal != 823 || loaded.ClaimID != 107 || loaded.Creator != testutil.Creator {
		t.Errorf("unexpected settlement %+v", loaded)
	}
	if len(loaded.Breakdown.Payouts) != 4 {
		t.Errorf("expected 4 payouts, got %d", len(loaded.Breakdown.Payouts))
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPostgresStorage_Close(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	storage := &PostgresStorage{db: db, logger: zap.NewNop()}
	mock.ExpectClose()

	err = storage.Close()
	if err != nil {
		t.Errorf("expected no error on close, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
