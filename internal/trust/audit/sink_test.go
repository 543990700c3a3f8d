package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/veritas-backend/internal/data/repos"
	"github.com/yungbote/veritas-backend/internal/data/repos/testutil"
	domainaudit "github.com/yungbote/veritas-backend/internal/domain/audit"
	"github.com/yungbote/veritas-backend/internal/observability"
	"github.com/yungbote/veritas-backend/internal/platform/dbctx"
)

func TestSink_RecordsEntry(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	repo := repos.NewAuditLogRepo(db, log)
	metrics := observability.New()
	sink := NewSink(repo, log, metrics)

	rumorID := uuid.New()
	sink.Record(context.Background(), Entry{
		EventType: domainaudit.EventTrustScoreCalculated,
		RumorID:   &rumorID,
		Data:      map[string]any{"vote_score": "0.6667", "vote_count": 2},
	})

	rows, err := repo.ListByRumor(dbctx.Context{Ctx: context.Background()}, rumorID, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 || rows[0].EventType != domainaudit.EventTrustScoreCalculated {
		t.Fatalf("unexpected rows: %+v", rows)
	}
	var data map[string]any
	if err := json.Unmarshal(rows[0].CalculationData, &data); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if data["vote_score"] != "0.6667" || data["vote_count"] != float64(2) {
		t.Fatalf("unexpected data: %+v", data)
	}
}

func TestSink_SwallowsFailures(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	metrics := observability.New()
	sink := NewSink(repos.NewAuditLogRepo(db, log), log, metrics)

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	_ = sqlDB.Close()

	// Must not panic or block.
	sink.Record(context.Background(), Entry{EventType: domainaudit.EventRumorSettled, Data: map[string]any{}})

	var buf bytes.Buffer
	if err := metrics.WritePrometheus(&buf); err != nil {
		t.Fatalf("write metrics: %v", err)
	}
	if !strings.Contains(buf.String(), `veritas_audit_writes_total{event_type="RUMOR_SETTLED",status="failed"} 1.000000`) {
		t.Fatalf("expected failed audit write to be counted:\n%s", buf.String())
	}
}

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	r.Record(context.Background(), Entry{EventType: domainaudit.EventProofScoreCalculated})
	if got := r.Entries(); len(got) != 1 || got[0].EventType != domainaudit.EventProofScoreCalculated {
		t.Fatalf("unexpected entries: %+v", got)
	}
	Nop().Record(context.Background(), Entry{})
}
