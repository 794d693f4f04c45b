package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/ethereum/go-ethereum/common"
	json "github.com/goccy/go-json"
	_ "github.com/lib/pq"
	"github.com/mselser95/claimpool/internal/resolution"
	"github.com/mselser95/claimpool/internal/reward"
	"github.com/mselser95/claimpool/pkg/types"
	"go.uber.org/zap"
)

// Schema creates the tables PostgresStorage writes to.
const Schema = `
CREATE TABLE IF NOT EXISTS pool_settlements (
	id                             UUID PRIMARY KEY,
	pool_id                        BIGINT NOT NULL UNIQUE,
	claim_id                       BIGINT NOT NULL,
	creator                        TEXT NOT NULL,
	block_number                   BIGINT NOT NULL,
	creator_was_correct            BOOLEAN NOT NULL,
	total_pool                     BIGINT NOT NULL,
	protocol_fee                   BIGINT NOT NULL,
	creator_reward                 BIGINT NOT NULL,
	distributed_to_stakers         BIGINT NOT NULL,
	remainder                      BIGINT NOT NULL,
	staker_pool_accrued_to_creator BOOLEAN NOT NULL,
	breakdown                      JSONB NOT NULL,
	settled_at                     TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS reputation_records (
	participant   TEXT PRIMARY KEY,
	points        BIGINT NOT NULL,
	total_pools   BIGINT NOT NULL,
	correct_pools BIGINT NOT NULL,
	wrong_pools   BIGINT NOT NULL,
	tier          TEXT NOT NULL,
	accuracy      BIGINT NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// PostgresStorage implements Storage using PostgreSQL.
type PostgresStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

// PostgresConfig holds PostgreSQL configuration.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
	Logger   *zap.Logger
}

// NewPostgresStorage connects and makes sure the schema exists.
func NewPostgresStorage(ctx context.Context, cfg *PostgresConfig) (*PostgresStorage, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	err = db.PingContext(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	storage := &PostgresStorage{db: db, logger: cfg.Logger}
	err = storage.EnsureSchema(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}

	cfg.Logger.Info("postgres-storage-connected",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database))

	return storage, nil
}

// EnsureSchema creates missing tables.
func (p *PostgresStorage) EnsureSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, Schema)
	if err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// HasSettlement reports whether poolID has a settlement row.
func (p *PostgresStorage) HasSettlement(ctx context.Context, poolID uint64) (bool, error) {
	id, err := dbID(poolID)
	if err != nil {
		return false, err
	}

	var exists bool
	err = p.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM pool_settlements WHERE pool_id = $1)`, id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query settlement: %w", err)
	}
	return exists, nil
}

// CommitSettlement inserts the settlement and upserts the creator's
// reputation in one transaction. A concurrent insert for the same pool
// yields resolution.ErrAlreadySettled.
func (p *PostgresStorage) CommitSettlement(ctx context.Context, record *resolution.SettlementRecord, rep types.ReputationRecord) (err error) {
	poolID, err := dbID(record.PoolID)
	if err != nil {
		return err
	}
	claimID, err := dbID(record.ClaimID)
	if err != nil {
		return err
	}
	block, err := dbID(record.BlockNumber)
	if err != nil {
		return err
	}

	breakdown, err := json.Marshal(record.Breakdown)
	if err != nil {
		return fmt.Errorf("marshal breakdown: %w", err)
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	b := record.Breakdown
	res, err := tx.ExecContext(ctx, `
		INSERT INTO pool_settlements (
			id, pool_id, claim_id, creator, block_number, creator_was_correct,
			total_pool, protocol_fee, creator_reward, distributed_to_stakers,
			remainder, staker_pool_accrued_to_creator, breakdown, settled_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (pool_id) DO NOTHING`,
		record.ID, poolID, claimID, record.Creator.Hex(), block, b.CreatorWasCorrect,
		b.TotalPool, b.ProtocolFee, b.CreatorRewardTotal, b.DistributedToStakers,
		b.Remainder, b.StakerPoolAccruedToCreator, breakdown, record.SettledAt,
	)
	if err != nil {
		return fmt.Errorf("insert settlement: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert settlement: %w", err)
	}
	if affected == 0 {
		err = fmt.Errorf("pool %d: %w", record.PoolID, resolution.ErrAlreadySettled)
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO reputation_records (
			participant, points, total_pools, correct_pools, wrong_pools, tier, accuracy, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (participant) DO UPDATE SET
			points = EXCLUDED.points,
			total_pools = EXCLUDED.total_pools,
			correct_pools = EXCLUDED.correct_pools,
			wrong_pools = EXCLUDED.wrong_pools,
			tier = EXCLUDED.tier,
			accuracy = EXCLUDED.accuracy,
			updated_at = EXCLUDED.updated_at`,
		rep.Participant.Hex(), rep.Points, rep.TotalPools, rep.CorrectPools, rep.WrongPools,
		rep.Tier.String(), rep.Accuracy,
	)
	if err != nil {
		return fmt.Errorf("upsert reputation: %w", err)
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	p.logger.Debug("settlement-stored",
		zap.String("settlement-id", record.ID),
		zap.Uint64("pool-id", record.PoolID),
		zap.String("creator", rep.Participant.Hex()))

	return nil
}

// LoadReputation reads the reputation row for participant.
func (p *PostgresStorage) LoadReputation(ctx context.Context, participant common.Address) (types.ReputationRecord, bool, error) {
	rec := types.ReputationRecord{Participant: participant}
	var tier string

	err := p.db.QueryRowContext(ctx, `
		SELECT points, total_pools, correct_pools, wrong_pools, tier, accuracy
		FROM reputation_records WHERE participant = $1`,
		participant.Hex(),
	).Scan(&rec.Points, &rec.TotalPools, &rec.CorrectPools, &rec.WrongPools, &tier, &rec.Accuracy)
	if errors.Is(err, sql.ErrNoRows) {
		return types.ReputationRecord{}, false, nil
	}
	if err != nil {
		return types.ReputationRecord{}, false, fmt.Errorf("query reputation: %w", err)
	}

	err = rec.Tier.UnmarshalText([]byte(tier))
	if err != nil {
		return types.ReputationRecord{}, false, fmt.Errorf("decode tier: %w", err)
	}
	return rec, true, nil
}

// LoadSettlement reads the settlement row for poolID.
func (p *PostgresStorage) LoadSettlement(ctx context.Context, poolID uint64) (*resolution.SettlementRecord, bool, error) {
	id, err := dbID(poolID)
	if err != nil {
		return nil, false, err
	}

	record := &resolution.SettlementRecord{PoolID: poolID}
	var claimID, block int64
	var creator string
	var breakdown []byte

	err = p.db.QueryRowContext(ctx, `
		SELECT id, claim_id, creator, block_number, breakdown, settled_at
		FROM pool_settlements WHERE pool_id = $1`, id,
	).Scan(&record.ID, &claimID, &creator, &block, &breakdown, &record.SettledAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query settlement: %w", err)
	}

	record.ClaimID = uint64(claimID)
	record.BlockNumber = uint64(block)
	record.Creator = common.HexToAddress(creator)
	record.Breakdown = &reward.Breakdown{}
	err = json.Unmarshal(breakdown, record.Breakdown)
	if err != nil {
		return nil, false, fmt.Errorf("decode breakdown: %w", err)
	}

	return record, true, nil
}

// Check pings the database.
func (p *PostgresStorage) Check(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Close closes the database connection.
func (p *PostgresStorage) Close() error {
	p.logger.Info("closing-postgres-storage")
	return p.db.Close()
}

func dbID(v uint64) (int64, error) {
	if v > math.MaxInt64 {
		return 0, types.Overflow("storage", 0, "id %d exceeds BIGINT", v)
	}
	return int64(v), nil
}
