package database

import (
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/gorm"
)

type index struct {
	table   string
	name    string
	columns []string
}

// Indexes that the struct tags do not express.
var extraIndexes = []index{
	// Board listing and comment ledger order
	{"tasks", "idx_tasks_project_created", []string{"project_id", "created_at"}},
	{"comments", "idx_comments_project_created", []string{"project_id", "created_at"}},

	// Invitation inbox
	{"invitations", "idx_invitations_email_status", []string{"email", "status"}},
}

// AddIndexes adds composite indexes, skipping ones that already exist.
func AddIndexes(db *gorm.DB) error {
	migrator := db.Migrator()

	for _, idx := range extraIndexes {
		if migrator.HasIndex(idx.table, idx.name) {
			slog.Debug("index already exists, skipping", "index", idx.name)
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, strings.Join(idx.columns, ", "))
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		slog.Info("created index", "index", idx.name, "table", idx.table)
	}

	return nil
}
