package store

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Skufu/symptomcheck/internal/catalog"
)

type ConditionSymptom struct {
	ID       uint   `gorm:"primaryKey"`
	Disease  string `gorm:"not null;index:idx_condition_symptom,unique"`
	Symptom  string `gorm:"not null;index:idx_condition_symptom,unique"`
	Position int    `gorm:"not null;default:0"`
}

func (ConditionSymptom) TableName() string {
	return "condition_symptoms"
}

// OpenSQLite opens (creating if needed) a SQLite file and migrates the
// condition table. ":memory:" is accepted for tests.
func OpenSQLite(dbPath string) (*gorm.DB, error) {
	dsn := dbPath
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
		dsn = fmt.Sprintf("%s?_pragma=busy_timeout(5000)", dbPath)
	}

	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			gormlogger.Config{
				SlowThreshold:             time.Second,
				LogLevel:                  gormlogger.Warn,
				IgnoreRecordNotFoundError: true,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if dbPath == ":memory:" {
		sqlDB, err := database.DB()
		if err != nil {
			return nil, fmt.Errorf("sqlite handle: %w", err)
		}
		// Every new connection would see its own empty in-memory database.
		sqlDB.SetMaxOpenConns(1)
	}

	if err := database.AutoMigrate(&ConditionSymptom{}); err != nil {
		return nil, fmt.Errorf("migrate condition symptoms: %w", err)
	}
	return database, nil
}

type SQLiteSource struct {
	database *gorm.DB
}

func NewSQLiteSource(database *gorm.DB) *SQLiteSource {
	return &SQLiteSource{database: database}
}

func (s *SQLiteSource) LoadConditionSymptoms(ctx context.Context) (catalog.Table, error) {
	var rows []ConditionSymptom
	if err := s.database.WithContext(ctx).Order("disease, position").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load condition symptoms: %w", err)
	}

	table := catalog.Table{}
	for _, row := range rows {
		table[row.Disease] = append(table[row.Disease], row.Symptom)
	}
	return table, nil
}

// Seed replaces the stored table with the given one in a single transaction.
func (s *SQLiteSource) Seed(ctx context.Context, table catalog.Table) error {
	diseases := make([]string, 0, len(table))
	for d := range table {
		diseases = append(diseases, d)
	}
	sort.Strings(diseases)

	rows := []ConditionSymptom{}
	for _, disease := range diseases {
		seen := map[string]struct{}{}
		for i, symptom := range table[disease] {
			if _, dup := seen[symptom]; dup {
				continue
			}
			seen[symptom] = struct{}{}
			rows = append(rows, ConditionSymptom{Disease: disease, Symptom: symptom, Position: i})
		}
	}

	return s.database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&ConditionSymptom{}).Error; err != nil {
			return fmt.Errorf("clear condition symptoms: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(rows, 200).Error; err != nil {
			return fmt.Errorf("insert condition symptoms: %w", err)
		}
		return nil
	})
}
