package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Column declares one column of a managed table. Default is a SQL literal
// used both in CREATE TABLE and to backfill NULLs before SET NOT NULL.
type Column struct {
	Name     string
	Type     string
	Nullable bool
	Default  string
}

func (c Column) definition() string {
	def := c.Name + " " + c.Type
	if !c.Nullable {
		def += " NOT NULL"
	}
	if c.Default != "" {
		def += " DEFAULT " + c.Default
	}
	return def
}

// Table is a managed table: an id SERIAL primary key plus Columns.
type Table struct {
	Name         string
	Columns      []Column
	UniqueColumn string
}

// ApplicationsTable is the expected shape of the applications table.
var ApplicationsTable = Table{
	Name:         "applications",
	UniqueColumn: "email",
	Columns: []Column{
		{Name: "full_name", Type: "VARCHAR(255)", Default: "''"},
		{Name: "email", Type: "VARCHAR(255)"},
		{Name: "mobile", Type: "VARCHAR(20)", Default: "''"},
		{Name: "alt_mobile", Type: "VARCHAR(20)", Nullable: true},
		{Name: "date_of_birth", Type: "VARCHAR(20)", Default: "''"},
		{Name: "parent_name", Type: "VARCHAR(255)", Default: "''"},
		{Name: "gender", Type: "VARCHAR(20)", Default: "''"},
		{Name: "marital_status", Type: "VARCHAR(20)", Nullable: true},
		{Name: "nationality", Type: "VARCHAR(100)", Default: "''"},
		{Name: "current_address", Type: "TEXT", Default: "''"},
		{Name: "permanent_address", Type: "TEXT", Default: "''"},
		{Name: "state", Type: "VARCHAR(100)", Default: "''"},
		{Name: "city", Type: "VARCHAR(100)", Default: "''"},
		{Name: "zipcode", Type: "VARCHAR(20)", Default: "''"},
		{Name: "emergency_contact", Type: "VARCHAR(20)", Default: "''"},
		{Name: "ssc_board", Type: "VARCHAR(255)", Default: "''"},
		{Name: "ssc_year", Type: "INTEGER", Default: "0"},
		{Name: "ssc_percentage", Type: "VARCHAR(20)", Default: "''"},
		{Name: "intermediate_board", Type: "VARCHAR(255)", Nullable: true},
		{Name: "intermediate_year", Type: "INTEGER", Nullable: true},
		{Name: "intermediate_percentage", Type: "VARCHAR(20)", Nullable: true},
		{Name: "college_name", Type: "VARCHAR(255)", Nullable: true},
		{Name: "qualification", Type: "VARCHAR(255)", Nullable: true},
		{Name: "branch", Type: "VARCHAR(255)", Nullable: true},
		{Name: "graduation_year", Type: "INTEGER", Nullable: true},
		{Name: "graduation_percentage", Type: "VARCHAR(20)", Nullable: true},
		{Name: "additional_education", Type: "JSONB", Nullable: true},
		{Name: "job_role", Type: "VARCHAR(255)", Default: "''"},
		{Name: "preferred_location", Type: "VARCHAR(255)", Default: "''"},
		{Name: "expected_salary", Type: "NUMERIC(12,2)", Nullable: true},
		{Name: "notice_period", Type: "VARCHAR(100)", Default: "''"},
		{Name: "skills", Type: "TEXT", Default: "''"},
		{Name: "certifications", Type: "TEXT", Nullable: true},
		{Name: "experience_status", Type: "VARCHAR(50)", Default: "'Fresher'"},
		{Name: "years_experience", Type: "INTEGER", Nullable: true},
		{Name: "company_name", Type: "VARCHAR(255)", Nullable: true},
		{Name: "designation", Type: "VARCHAR(255)", Nullable: true},
		{Name: "work_location", Type: "VARCHAR(255)", Nullable: true},
		{Name: "start_date", Type: "VARCHAR(20)", Nullable: true},
		{Name: "end_date", Type: "VARCHAR(20)", Nullable: true},
		{Name: "last_salary", Type: "NUMERIC(12,2)", Nullable: true},
		{Name: "linkedin", Type: "VARCHAR(255)", Nullable: true},
		{Name: "github", Type: "VARCHAR(255)", Nullable: true},
		{Name: "reference_name", Type: "VARCHAR(255)", Nullable: true},
		{Name: "reference_email", Type: "VARCHAR(255)", Nullable: true},
		{Name: "resume", Type: "VARCHAR(255)", Default: "''"},
		{Name: "cover_letter", Type: "VARCHAR(255)", Nullable: true},
		{Name: "submission_date", Type: "TIMESTAMPTZ", Default: "NOW()"},
		{Name: "status", Type: "VARCHAR(20)", Default: "'Pending'"},
	},
}

// Migration is one idempotent step of the schema history. Every step is
// safe to re-run, so all of them run on every start.
type Migration struct {
	Version int
	Name    string
	Up      func(ctx context.Context, db *gorm.DB, t Table, log logrus.FieldLogger) error
}

var Migrations = []Migration{
	{Version: 1, Name: "create_table", Up: createTable},
	{Version: 2, Name: "sync_columns", Up: syncColumns},
	{Version: 3, Name: "unique_index", Up: uniqueIndex},
}

// SyncSchema applies Migrations to t. Only a failure to create the table is
// returned; later steps log their failures and carry on.
func SyncSchema(ctx context.Context, db *gorm.DB, t Table, log logrus.FieldLogger) error {
	for _, m := range Migrations {
		mlog := log.WithFields(logrus.Fields{"table": t.Name, "version": m.Version, "migration": m.Name})
		if err := m.Up(ctx, db, t, mlog); err != nil {
			if m.Version == 1 {
				return fmt.Errorf("migration %d %s: %w", m.Version, m.Name, err)
			}
			mlog.WithError(err).Error("migration failed")
			continue
		}
		mlog.Debug("migration applied")
	}
	return nil
}

func createTable(ctx context.Context, db *gorm.DB, t Table, _ logrus.FieldLogger) error {
	defs := []string{"id SERIAL PRIMARY KEY"}
	for _, c := range t.Columns {
		defs = append(defs, c.definition())
	}
	stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", t.Name, strings.Join(defs, ",\n\t"))
	return db.WithContext(ctx).Exec(stmt).Error
}

// syncColumns adds any declared column the table lacks. Columns are added
// nullable first so existing rows can be backfilled before NOT NULL applies.
// Columns already present are left exactly as they are.
func syncColumns(ctx context.Context, db *gorm.DB, t Table, log logrus.FieldLogger) error {
	existing, err := existingColumns(ctx, db, t.Name)
	if err != nil {
		return fmt.Errorf("inspect columns: %w", err)
	}

	failed := 0
	for _, c := range t.Columns {
		if existing[c.Name] {
			continue
		}
		if err := addColumn(ctx, db, t.Name, c); err != nil {
			failed++
			log.WithError(err).WithField("column", c.Name).Warn("column sync failed")
			continue
		}
		log.WithField("column", c.Name).Info("column added")
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d columns failed to sync", failed, len(t.Columns))
	}
	return nil
}

func existingColumns(ctx context.Context, db *gorm.DB, table string) (map[string]bool, error) {
	var names []string
	err := db.WithContext(ctx).Raw(
		"SELECT column_name FROM information_schema.columns WHERE table_schema = CURRENT_SCHEMA() AND table_name = ?",
		table,
	).Scan(&names).Error
	if err != nil {
		return nil, err
	}
	cols := make(map[string]bool, len(names))
	for _, n := range names {
		cols[n] = true
	}
	return cols, nil
}

func addColumn(ctx context.Context, db *gorm.DB, table string, c Column) error {
	tx := db.WithContext(ctx)
	if err := tx.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s %s", table, c.Name, c.Type)).Error; err != nil {
		return fmt.Errorf("add column: %w", err)
	}
	if c.Nullable {
		return nil
	}
	if c.Default != "" {
		if err := tx.Exec(fmt.Sprintf("UPDATE %s SET %s = %s WHERE %s IS NULL", table, c.Name, c.Default, c.Name)).Error; err != nil {
			return fmt.Errorf("backfill: %w", err)
		}
		if err := tx.Exec(fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET DEFAULT %s", table, c.Name, c.Default)).Error; err != nil {
			return fmt.Errorf("set default: %w", err)
		}
	}
	if err := tx.Exec(fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET NOT NULL", table, c.Name)).Error; err != nil {
		return fmt.Errorf("set not null: %w", err)
	}
	return nil
}

func uniqueIndex(ctx context.Context, db *gorm.DB, t Table, _ logrus.FieldLogger) error {
	if t.UniqueColumn == "" {
		return nil
	}
	stmt := fmt.Sprintf("CREATE UNIQUE INDEX IF NOT EXISTS %s_%s_key ON %s (%s)", t.Name, t.UniqueColumn, t.Name, t.UniqueColumn)
	return db.WithContext(ctx).Exec(stmt).Error
}
