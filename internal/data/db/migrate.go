package db

import (
	"fmt"

	types "github.com/yungbote/veritas-backend/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(types.Models()...)
}

// EnsureScoringIndexes creates the partial indexes the score engines and feed rely on.
// The statements are valid on both Postgres and SQLite.
func EnsureScoringIndexes(db *gorm.DB) error {
	stmts := []struct {
		name string
		sql  string
	}{
		{
			name: "idx_proof_rumor_mature",
			sql:  `CREATE INDEX IF NOT EXISTS idx_proof_rumor_mature ON proof(rumor_id) WHERE is_mature AND deleted_at IS NULL;`,
		},
		{
			name: "idx_rumor_vote_rumor_cast_at",
			sql:  `CREATE INDEX IF NOT EXISTS idx_rumor_vote_rumor_cast_at ON rumor_vote(rumor_id, cast_at) WHERE deleted_at IS NULL;`,
		},
		{
			name: "idx_rumor_active_created_at",
			sql:  `CREATE INDEX IF NOT EXISTS idx_rumor_active_created_at ON rumor(created_at) WHERE NOT is_frozen AND deleted_at IS NULL;`,
		},
		{
			name: "idx_reputation_event_user_created_at",
			sql:  `CREATE INDEX IF NOT EXISTS idx_reputation_event_user_created_at ON reputation_event(user_id, created_at);`,
		},
	}
	for _, s := range stmts {
		if err := db.Exec(s.sql).Error; err != nil {
			return fmt.Errorf("create %s: %w", s.name, err)
		}
	}
	return nil
}
