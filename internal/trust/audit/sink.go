package audit

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/veritas-backend/internal/data/repos"
	types "github.com/yungbote/veritas-backend/internal/domain"
	domainaudit "github.com/yungbote/veritas-backend/internal/domain/audit"
	"github.com/yungbote/veritas-backend/internal/observability"
	"github.com/yungbote/veritas-backend/internal/platform/dbctx"
	"github.com/yungbote/veritas-backend/internal/platform/logger"
)

// Entry is one diagnostic record. Data is stored as JSON.
type Entry struct {
	EventType domainaudit.LogEventType
	RumorID   *uuid.UUID
	ProofID   *uuid.UUID
	UserID    *uuid.UUID
	Data      map[string]any
}

// Sink records audit entries. Record never fails the caller: audit is
// diagnostic and is written after the scored state has committed.
type Sink interface {
	Record(ctx context.Context, e Entry)
}

type repoSink struct {
	repo    repos.AuditLogRepo
	log     *logger.Logger
	metrics *observability.Metrics
	now     func() time.Time
}

func NewSink(repo repos.AuditLogRepo, baseLog *logger.Logger, metrics *observability.Metrics) Sink {
	if baseLog == nil {
		baseLog = logger.Nop()
	}
	return &repoSink{
		repo:    repo,
		log:     baseLog.With("service", "AuditSink"),
		metrics: metrics,
		now:     time.Now,
	}
}

func (s *repoSink) Record(ctx context.Context, e Entry) {
	if s == nil || s.repo == nil {
		return
	}
	raw, err := json.Marshal(e.Data)
	if err != nil {
		s.fail(e, err)
		return
	}
	row := &types.AuditLog{
		ID:              uuid.New(),
		EventType:       e.EventType,
		RumorID:         e.RumorID,
		ProofID:         e.ProofID,
		UserID:          e.UserID,
		CalculationData: datatypes.JSON(raw),
		CreatedAt:       s.now().UTC(),
	}
	if _, err := s.repo.Create(dbctx.Context{Ctx: ctx}, []*types.AuditLog{row}); err != nil {
		s.fail(e, err)
		return
	}
	s.metrics.IncAuditWrite(string(e.EventType), "written")
}

func (s *repoSink) fail(e Entry, err error) {
	s.metrics.IncAuditWrite(string(e.EventType), "failed")
	s.log.Warn("Audit write failed", "event_type", e.EventType, "rumor_id", e.RumorID, "proof_id", e.ProofID, "error", err)
}

type nopSink struct{}

func (nopSink) Record(context.Context, Entry) {}

// Nop discards every entry.
func Nop() Sink { return nopSink{} }

// Recorder keeps entries in memory.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

func (r *Recorder) Record(_ context.Context, e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
}

func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}
