package store

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/jackc/pgx/v5"

	"github.com/Skufu/symptomcheck/internal/catalog"
)

func TestSQLiteSeedAndLoad(t *testing.T) {
	database, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite() unexpected error: %v", err)
	}
	source := NewSQLiteSource(database)
	ctx := context.Background()

	if err := source.Seed(ctx, catalog.Table{
		"Flu":  {"high_fever", "cough", "cough", "chills"},
		"Cold": {"sneeze"},
	}); err != nil {
		t.Fatalf("Seed() unexpected error: %v", err)
	}

	table, err := source.LoadConditionSymptoms(ctx)
	if err != nil {
		t.Fatalf("LoadConditionSymptoms() unexpected error: %v", err)
	}
	want := catalog.Table{
		"Flu":  {"high_fever", "cough", "chills"},
		"Cold": {"sneeze"},
	}
	if !reflect.DeepEqual(table, want) {
		t.Fatalf("table = %v, want %v", table, want)
	}

	if err := source.Seed(ctx, catalog.Table{"Gout": {"joint_pain"}}); err != nil {
		t.Fatalf("reseed unexpected error: %v", err)
	}
	table, _ = source.LoadConditionSymptoms(ctx)
	if len(table) != 1 || len(table["Gout"]) != 1 {
		t.Fatalf("reseed must replace the table, got %v", table)
	}
}

type failingQuerier struct{}

func (failingQuerier) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("connection reset")
}

func TestPostgresSourceWrapsQueryError(t *testing.T) {
	_, err := NewPostgresSource(failingQuerier{}).LoadConditionSymptoms(context.Background())
	if err == nil || err.Error() != "query condition symptoms: connection reset" {
		t.Fatalf("unexpected error: %v", err)
	}
}
