package service

import (
	"context"
	crand "crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/latihanku/latihanku-backend/internal/config"
	"github.com/latihanku/latihanku-backend/internal/model"
	"github.com/rs/zerolog"
)

// BlockStore persists the exam block state machine.
type BlockStore interface {
	RecordViolation(ctx context.Context, learnerID int, btype model.BlockType, reason, code string) (*model.ExamBlock, error)
	GetActive(ctx context.Context, learnerID int, types []model.BlockType) (*model.ExamBlock, error)
	ListActiveByLearner(ctx context.Context, learnerID int, types []model.BlockType) ([]model.ExamBlock, error)
	ListActive(ctx context.Context, types []model.BlockType) ([]model.ExamBlock, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.ExamBlock, error)
	Unlock(ctx context.Context, blockID uuid.UUID, submitted, next string) (bool, error)
	Resolve(ctx context.Context, blockID uuid.UUID) error
	SetCode(ctx context.Context, blockID uuid.UUID, code string) error
}

// SettingStore reads runtime feature toggles.
type SettingStore interface {
	GetBool(ctx context.Context, key string, def bool) (bool, error)
}

// ViolationSink receives the audit/monitor copy of each violation event.
type ViolationSink interface {
	Enqueue(ctx context.Context, ev model.ViolationEvent) error
}

// blockPolicy maps a consulting context onto the enable-flag and effective
// type filter. The higher-stakes UJIAN context consults both block types
// through the single exam flag instead of the per-type flags.
func blockPolicy(bctx model.BlockContext, btype model.BlockType) (settingKey string, types []model.BlockType) {
	if bctx == model.BlockContextUjian {
		return config.SettingBlockExamEnabled, []model.BlockType{model.BlockTypePractice, model.BlockTypeTryout}
	}
	if btype == model.BlockTypePractice {
		return config.SettingBlockPracticeEnabled, []model.BlockType{model.BlockTypePractice}
	}
	return config.SettingBlockTryoutEnabled, []model.BlockType{model.BlockTypeTryout}
}

// GenerateUnlockCode produces a 6-digit numeric code from a uniform
// cryptographic source. Codes are single-use: rotated on every successful
// unlock and on every new violation.
func GenerateUnlockCode() (string, error) {
	n, err := crand.Int(crand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// BlockService runs the anti-cheat violation/block state machine.
type BlockService struct {
	blocks   BlockStore
	settings SettingStore
	events   ViolationSink
	log      zerolog.Logger
}

// NewBlockService creates a new BlockService.
func NewBlockService(blocks BlockStore, settings SettingStore, events ViolationSink, log zerolog.Logger) *BlockService {
	return &BlockService{
		blocks:   blocks,
		settings: settings,
		events:   events,
		log:      log.With().Str("component", "block_service").Logger(),
	}
}

// RecordViolation creates or escalates a block for the learner. When the
// applicable enable-flag is off it returns (nil, nil): the event is ignored
// and no historical row is touched.
func (s *BlockService) RecordViolation(ctx context.Context, learnerID int, btype model.BlockType, bctx model.BlockContext, reason string) (*model.ExamBlock, error) {
	if bctx == "" {
		bctx = model.BlockContextStandard
	}

	key, _ := blockPolicy(bctx, btype)
	enabled, err := s.settings.GetBool(ctx, key, true)
	if err != nil {
		return nil, fmt.Errorf("read toggle %s: %w", key, err)
	}
	if !enabled {
		return nil, nil
	}

	code, err := GenerateUnlockCode()
	if err != nil {
		return nil, err
	}

	block, err := s.blocks.RecordViolation(ctx, learnerID, btype, reason, code)
	if err != nil {
		return nil, fmt.Errorf("record violation: %w", err)
	}

	if s.events != nil {
		ev := model.ViolationEvent{
			LearnerID: learnerID,
			Type:      btype,
			Reason:    reason,
			Timestamp: time.Now().Unix(),
		}
		if err := s.events.Enqueue(ctx, ev); err != nil {
			// The block itself is already durable; losing the telemetry
			// copy is not worth failing the request over.
			s.log.Warn().Err(err).Int("learner_id", learnerID).Msg("violation event enqueue failed")
		}
	}

	s.log.Info().
		Int("learner_id", learnerID).
		Str("type", string(btype)).
		Int("violation_count", block.ViolationCount).
		Msg("violation recorded")

	return block, nil
}

// ActiveBlocks lists the learner's active blocks under the given context.
// With the context's enable-flag off this returns empty even if historical
// active rows exist.
func (s *BlockService) ActiveBlocks(ctx context.Context, learnerID int, bctx model.BlockContext) ([]model.ExamBlock, error) {
	if bctx == "" {
		bctx = model.BlockContextStandard
	}

	if bctx == model.BlockContextUjian {
		return s.activeForPolicy(ctx, learnerID, bctx, model.BlockTypeTryout)
	}

	// STANDARD consults each per-type flag independently.
	var all []model.ExamBlock
	for _, t := range []model.BlockType{model.BlockTypePractice, model.BlockTypeTryout} {
		blocks, err := s.activeForPolicy(ctx, learnerID, bctx, t)
		if err != nil {
			return nil, err
		}
		all = append(all, blocks...)
	}
	return all, nil
}

func (s *BlockService) activeForPolicy(ctx context.Context, learnerID int, bctx model.BlockContext, btype model.BlockType) ([]model.ExamBlock, error) {
	key, types := blockPolicy(bctx, btype)
	enabled, err := s.settings.GetBool(ctx, key, true)
	if err != nil {
		return nil, fmt.Errorf("read toggle %s: %w", key, err)
	}
	if !enabled {
		return nil, nil
	}

	blocks, err := s.blocks.ListActiveByLearner(ctx, learnerID, types)
	if err != nil {
		return nil, fmt.Errorf("list active blocks: %w", err)
	}
	return blocks, nil
}

// CheckBlocked returns ErrBlocked when the learner has an active block for
// the assessment type. Consulted before every session start.
func (s *BlockService) CheckBlocked(ctx context.Context, learnerID int, btype model.BlockType) error {
	key, types := blockPolicy(model.BlockContextStandard, btype)
	enabled, err := s.settings.GetBool(ctx, key, true)
	if err != nil {
		return fmt.Errorf("read toggle %s: %w", key, err)
	}
	if !enabled {
		return nil
	}

	_, err = s.blocks.GetActive(ctx, learnerID, types)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("get active block: %w", err)
	}
	return ErrBlocked
}

// Unlock resolves the learner's active block when the submitted code
// matches. The stored code rotates on success so it cannot be replayed.
func (s *BlockService) Unlock(ctx context.Context, learnerID int, btype model.BlockType, code string) (*model.ExamBlock, error) {
	block, err := s.blocks.GetActive(ctx, learnerID, []model.BlockType{btype})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoActiveBlock
	}
	if err != nil {
		return nil, fmt.Errorf("get active block: %w", err)
	}

	next, err := GenerateUnlockCode()
	if err != nil {
		return nil, err
	}

	ok, err := s.blocks.Unlock(ctx, block.ID, code, next)
	if err != nil {
		return nil, fmt.Errorf("unlock: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCode
	}

	s.log.Info().
		Int("learner_id", learnerID).
		Str("type", string(btype)).
		Msg("block unlocked")

	now := time.Now()
	block.ResolvedAt = &now
	return block, nil
}

// Resolve closes a block unconditionally (admin override, no code check).
func (s *BlockService) Resolve(ctx context.Context, blockID uuid.UUID) error {
	if err := s.blocks.Resolve(ctx, blockID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNoActiveBlock
		}
		return fmt.Errorf("resolve block: %w", err)
	}
	return nil
}

// RegenerateCode reissues a fresh code on an active block without touching
// the violation count, returning the new code for the admin to hand out.
func (s *BlockService) RegenerateCode(ctx context.Context, blockID uuid.UUID) (string, error) {
	code, err := GenerateUnlockCode()
	if err != nil {
		return "", err
	}
	if err := s.blocks.SetCode(ctx, blockID, code); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNoActiveBlock
		}
		return "", fmt.Errorf("set code: %w", err)
	}
	return code, nil
}

// ListActive lists all learners' active blocks of the given types for admin
// reporting. An empty filter means both types.
func (s *BlockService) ListActive(ctx context.Context, types []model.BlockType) ([]model.ExamBlock, error) {
	if len(types) == 0 {
		types = []model.BlockType{model.BlockTypePractice, model.BlockTypeTryout}
	}
	return s.blocks.ListActive(ctx, types)
}
