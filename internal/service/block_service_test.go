package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/latihanku/latihanku-backend/internal/config"
	"github.com/latihanku/latihanku-backend/internal/model"
	"github.com/rs/zerolog"
)

type fakeBlockStore struct {
	mu     sync.Mutex
	blocks map[uuid.UUID]*model.ExamBlock
}

func newFakeBlockStore() *fakeBlockStore {
	return &fakeBlockStore{blocks: map[uuid.UUID]*model.ExamBlock{}}
}

func (f *fakeBlockStore) activeLocked(learnerID int, types []model.BlockType) *model.ExamBlock {
	for _, b := range f.blocks {
		if b.LearnerID != learnerID || b.ResolvedAt != nil {
			continue
		}
		for _, t := range types {
			if b.Type == t {
				return b
			}
		}
	}
	return nil
}

func (f *fakeBlockStore) RecordViolation(_ context.Context, learnerID int, btype model.BlockType, reason, code string) (*model.ExamBlock, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if b := f.activeLocked(learnerID, []model.BlockType{btype}); b != nil {
		b.ViolationCount++
		b.UnlockCode = code
		b.Reason = reason
		b.BlockedAt = time.Now()
		copy := *b
		return &copy, nil
	}

	b := &model.ExamBlock{
		ID:             uuid.New(),
		LearnerID:      learnerID,
		Type:           btype,
		Reason:         reason,
		ViolationCount: 1,
		UnlockCode:     code,
		BlockedAt:      time.Now(),
	}
	f.blocks[b.ID] = b
	copy := *b
	return &copy, nil
}

func (f *fakeBlockStore) GetActive(_ context.Context, learnerID int, types []model.BlockType) (*model.ExamBlock, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b := f.activeLocked(learnerID, types); b != nil {
		copy := *b
		return &copy, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeBlockStore) ListActiveByLearner(_ context.Context, learnerID int, types []model.BlockType) ([]model.ExamBlock, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.ExamBlock
	for _, b := range f.blocks {
		if b.LearnerID != learnerID || b.ResolvedAt != nil {
			continue
		}
		for _, t := range types {
			if b.Type == t {
				out = append(out, *b)
			}
		}
	}
	return out, nil
}

func (f *fakeBlockStore) ListActive(_ context.Context, types []model.BlockType) ([]model.ExamBlock, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.ExamBlock
	for _, b := range f.blocks {
		if b.ResolvedAt != nil {
			continue
		}
		for _, t := range types {
			if b.Type == t {
				out = append(out, *b)
			}
		}
	}
	return out, nil
}

func (f *fakeBlockStore) GetByID(_ context.Context, id uuid.UUID) (*model.ExamBlock, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.blocks[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copy := *b
	return &copy, nil
}

func (f *fakeBlockStore) Unlock(_ context.Context, blockID uuid.UUID, submitted, next string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.blocks[blockID]
	if !ok || b.ResolvedAt != nil || b.UnlockCode != submitted {
		return false, nil
	}
	now := time.Now()
	b.ResolvedAt = &now
	b.UnlockCode = next
	return true, nil
}

func (f *fakeBlockStore) Resolve(_ context.Context, blockID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.blocks[blockID]
	if !ok || b.ResolvedAt != nil {
		return pgx.ErrNoRows
	}
	now := time.Now()
	b.ResolvedAt = &now
	return nil
}

func (f *fakeBlockStore) SetCode(_ context.Context, blockID uuid.UUID, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.blocks[blockID]
	if !ok || b.ResolvedAt != nil {
		return pgx.ErrNoRows
	}
	b.UnlockCode = code
	return nil
}

type fakeSettingStore struct {
	values map[string]bool
}

func (f *fakeSettingStore) GetBool(_ context.Context, key string, def bool) (bool, error) {
	if v, ok := f.values[key]; ok {
		return v, nil
	}
	return def, nil
}

type fakeViolationSink struct {
	mu     sync.Mutex
	events []model.ViolationEvent
}

func (f *fakeViolationSink) Enqueue(_ context.Context, ev model.ViolationEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return nil
}

func newBlockService(store *fakeBlockStore, settings map[string]bool, sink *fakeViolationSink) *BlockService {
	return NewBlockService(store, &fakeSettingStore{values: settings}, sink, zerolog.Nop())
}

func TestRecordViolationCreatesBlock(t *testing.T) {
	store := newFakeBlockStore()
	sink := &fakeViolationSink{}
	svc := newBlockService(store, nil, sink)

	block, err := svc.RecordViolation(context.Background(), 7, model.BlockTypeTryout, model.BlockContextStandard, "tab switch")
	if err != nil {
		t.Fatalf("RecordViolation() error = %v", err)
	}
	if block == nil {
		t.Fatal("block = nil, want created block")
	}
	if block.ViolationCount != 1 {
		t.Errorf("ViolationCount = %d, want 1", block.ViolationCount)
	}
	if len(block.UnlockCode) != 6 {
		t.Errorf("UnlockCode = %q, want 6 digits", block.UnlockCode)
	}
	if len(sink.events) != 1 {
		t.Errorf("enqueued events = %d, want 1", len(sink.events))
	}
}

func TestRecordViolationEscalatesAndRotatesCode(t *testing.T) {
	store := newFakeBlockStore()
	svc := newBlockService(store, nil, &fakeViolationSink{})
	ctx := context.Background()

	first, err := svc.RecordViolation(ctx, 7, model.BlockTypeTryout, model.BlockContextStandard, "tab switch")
	if err != nil {
		t.Fatalf("first RecordViolation() error = %v", err)
	}
	second, err := svc.RecordViolation(ctx, 7, model.BlockTypeTryout, model.BlockContextStandard, "fullscreen exit")
	if err != nil {
		t.Fatalf("second RecordViolation() error = %v", err)
	}

	if second.ID != first.ID {
		t.Error("escalation created a new block instead of reusing the active one")
	}
	if second.ViolationCount != 2 {
		t.Errorf("ViolationCount = %d, want 2", second.ViolationCount)
	}
	if second.UnlockCode == first.UnlockCode {
		t.Error("unlock code not rotated on escalation")
	}
}

func TestRecordViolationConcurrentSingleBlock(t *testing.T) {
	store := newFakeBlockStore()
	svc := newBlockService(store, nil, &fakeViolationSink{})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.RecordViolation(ctx, 7, model.BlockTypePractice, model.BlockContextStandard, "blur"); err != nil {
				t.Errorf("RecordViolation() error = %v", err)
			}
		}()
	}
	wg.Wait()

	blocks, _ := store.ListActive(ctx, []model.BlockType{model.BlockTypePractice})
	if len(blocks) != 1 {
		t.Fatalf("active blocks = %d, want 1", len(blocks))
	}
	if blocks[0].ViolationCount != 3 {
		t.Errorf("ViolationCount = %d, want 3", blocks[0].ViolationCount)
	}
}

func TestRecordViolationDisabledIsNoOp(t *testing.T) {
	store := newFakeBlockStore()
	sink := &fakeViolationSink{}
	svc := newBlockService(store, map[string]bool{config.SettingBlockTryoutEnabled: false}, sink)

	block, err := svc.RecordViolation(context.Background(), 7, model.BlockTypeTryout, model.BlockContextStandard, "tab switch")
	if err != nil {
		t.Fatalf("RecordViolation() error = %v", err)
	}
	if block != nil {
		t.Errorf("block = %+v, want nil when disabled", block)
	}
	if len(sink.events) != 0 {
		t.Errorf("enqueued events = %d, want 0", len(sink.events))
	}
}

func TestActiveBlocksHiddenWhileDisabled(t *testing.T) {
	store := newFakeBlockStore()
	svc := newBlockService(store, nil, &fakeViolationSink{})
	ctx := context.Background()

	if _, err := svc.RecordViolation(ctx, 7, model.BlockTypePractice, model.BlockContextStandard, ""); err != nil {
		t.Fatalf("RecordViolation() error = %v", err)
	}

	// Flip the flag off: the historical row stays but is not surfaced.
	disabled := newBlockService(store, map[string]bool{config.SettingBlockPracticeEnabled: false}, &fakeViolationSink{})
	blocks, err := disabled.ActiveBlocks(ctx, 7, model.BlockContextStandard)
	if err != nil {
		t.Fatalf("ActiveBlocks() error = %v", err)
	}
	if len(blocks) != 0 {
		t.Errorf("blocks = %d, want 0 while disabled", len(blocks))
	}

	// Flip back on: the same active row resurfaces.
	blocks, err = svc.ActiveBlocks(ctx, 7, model.BlockContextStandard)
	if err != nil {
		t.Fatalf("ActiveBlocks() error = %v", err)
	}
	if len(blocks) != 1 {
		t.Errorf("blocks = %d, want 1 after re-enable", len(blocks))
	}
}

func TestUjianContextUsesExamFlagAndBothTypes(t *testing.T) {
	store := newFakeBlockStore()
	svc := newBlockService(store, nil, &fakeViolationSink{})
	ctx := context.Background()

	if _, err := svc.RecordViolation(ctx, 7, model.BlockTypePractice, model.BlockContextStandard, ""); err != nil {
		t.Fatalf("RecordViolation() error = %v", err)
	}

	blocks, err := svc.ActiveBlocks(ctx, 7, model.BlockContextUjian)
	if err != nil {
		t.Fatalf("ActiveBlocks() error = %v", err)
	}
	if len(blocks) != 1 {
		t.Errorf("blocks = %d, want practice block visible under UJIAN", len(blocks))
	}

	// The per-type flags are ignored under UJIAN; only the exam flag counts.
	examOff := newBlockService(store, map[string]bool{config.SettingBlockExamEnabled: false}, &fakeViolationSink{})
	blocks, err = examOff.ActiveBlocks(ctx, 7, model.BlockContextUjian)
	if err != nil {
		t.Fatalf("ActiveBlocks() error = %v", err)
	}
	if len(blocks) != 0 {
		t.Errorf("blocks = %d, want 0 with exam flag off", len(blocks))
	}
}

func TestUjianContextListsBlocksOfBothTypes(t *testing.T) {
	store := newFakeBlockStore()
	svc := newBlockService(store, nil, &fakeViolationSink{})
	ctx := context.Background()

	if _, err := svc.RecordViolation(ctx, 7, model.BlockTypePractice, model.BlockContextStandard, ""); err != nil {
		t.Fatalf("RecordViolation() error = %v", err)
	}
	if _, err := svc.RecordViolation(ctx, 7, model.BlockTypeTryout, model.BlockContextStandard, ""); err != nil {
		t.Fatalf("RecordViolation() error = %v", err)
	}

	blocks, err := svc.ActiveBlocks(ctx, 7, model.BlockContextUjian)
	if err != nil {
		t.Fatalf("ActiveBlocks() error = %v", err)
	}
	if len(blocks) != 2 {
		t.Fatalf("blocks = %d, want both types visible under UJIAN", len(blocks))
	}
	seen := map[model.BlockType]bool{}
	for _, b := range blocks {
		seen[b.Type] = true
	}
	if !seen[model.BlockTypePractice] || !seen[model.BlockTypeTryout] {
		t.Errorf("listed types = %v, want PRACTICE and TRYOUT", blocks)
	}
}

func TestUnlockHappyPath(t *testing.T) {
	store := newFakeBlockStore()
	svc := newBlockService(store, nil, &fakeViolationSink{})
	ctx := context.Background()

	created, err := svc.RecordViolation(ctx, 7, model.BlockTypeTryout, model.BlockContextStandard, "")
	if err != nil {
		t.Fatalf("RecordViolation() error = %v", err)
	}

	block, err := svc.Unlock(ctx, 7, model.BlockTypeTryout, created.UnlockCode)
	if err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}
	if block.ResolvedAt == nil {
		t.Error("ResolvedAt = nil after unlock")
	}
	if err := svc.CheckBlocked(ctx, 7, model.BlockTypeTryout); err != nil {
		t.Errorf("CheckBlocked() after unlock = %v, want nil", err)
	}
}

func TestUnlockWrongCode(t *testing.T) {
	store := newFakeBlockStore()
	svc := newBlockService(store, nil, &fakeViolationSink{})
	ctx := context.Background()

	created, err := svc.RecordViolation(ctx, 7, model.BlockTypeTryout, model.BlockContextStandard, "")
	if err != nil {
		t.Fatalf("RecordViolation() error = %v", err)
	}

	wrong := "000000"
	if wrong == created.UnlockCode {
		wrong = "000001"
	}
	if _, err := svc.Unlock(ctx, 7, model.BlockTypeTryout, wrong); !errors.Is(err, ErrInvalidCode) {
		t.Errorf("Unlock() error = %v, want ErrInvalidCode", err)
	}

	// Block remains active.
	if err := svc.CheckBlocked(ctx, 7, model.BlockTypeTryout); !errors.Is(err, ErrBlocked) {
		t.Errorf("CheckBlocked() = %v, want ErrBlocked", err)
	}
}

func TestUnlockCodeSingleUse(t *testing.T) {
	store := newFakeBlockStore()
	svc := newBlockService(store, nil, &fakeViolationSink{})
	ctx := context.Background()

	first, err := svc.RecordViolation(ctx, 7, model.BlockTypeTryout, model.BlockContextStandard, "")
	if err != nil {
		t.Fatalf("RecordViolation() error = %v", err)
	}
	if _, err := svc.Unlock(ctx, 7, model.BlockTypeTryout, first.UnlockCode); err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}

	// New violation, new block. The old code must not open it.
	if _, err := svc.RecordViolation(ctx, 7, model.BlockTypeTryout, model.BlockContextStandard, ""); err != nil {
		t.Fatalf("RecordViolation() error = %v", err)
	}
	if _, err := svc.Unlock(ctx, 7, model.BlockTypeTryout, first.UnlockCode); !errors.Is(err, ErrInvalidCode) {
		t.Errorf("Unlock() with stale code error = %v, want ErrInvalidCode", err)
	}
}

func TestUnlockNoActiveBlock(t *testing.T) {
	svc := newBlockService(newFakeBlockStore(), nil, &fakeViolationSink{})

	_, err := svc.Unlock(context.Background(), 7, model.BlockTypeTryout, "123456")
	if !errors.Is(err, ErrNoActiveBlock) {
		t.Errorf("Unlock() error = %v, want ErrNoActiveBlock", err)
	}
}

func TestRegenerateCode(t *testing.T) {
	store := newFakeBlockStore()
	svc := newBlockService(store, nil, &fakeViolationSink{})
	ctx := context.Background()

	created, err := svc.RecordViolation(ctx, 7, model.BlockTypeTryout, model.BlockContextStandard, "")
	if err != nil {
		t.Fatalf("RecordViolation() error = %v", err)
	}

	code, err := svc.RegenerateCode(ctx, created.ID)
	if err != nil {
		t.Fatalf("RegenerateCode() error = %v", err)
	}
	if len(code) != 6 {
		t.Errorf("code = %q, want 6 digits", code)
	}

	// Only the fresh code unlocks.
	if _, err := svc.Unlock(ctx, 7, model.BlockTypeTryout, created.UnlockCode); !errors.Is(err, ErrInvalidCode) {
		t.Errorf("Unlock() with superseded code error = %v, want ErrInvalidCode", err)
	}
	if _, err := svc.Unlock(ctx, 7, model.BlockTypeTryout, code); err != nil {
		t.Errorf("Unlock() with regenerated code error = %v", err)
	}
}

func TestGenerateUnlockCodeFormat(t *testing.T) {
	for i := 0; i < 100; i++ {
		code, err := GenerateUnlockCode()
		if err != nil {
			t.Fatalf("GenerateUnlockCode() error = %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("code = %q, want 6 characters", code)
		}
		for _, r := range code {
			if r < '0' || r > '9' {
				t.Fatalf("code = %q contains non-digit", code)
			}
		}
	}
}
