package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/DEFRA/forms-designer-sub008/internal/conditions"
)

// openTestDB opens a migrated SQLite database in a temp directory.
func openTestDB(t *testing.T) (*sqlx.DB, *Queries) {
	t.Helper()
	db, err := Open("sqlite://" + filepath.Join(t.TempDir(), "conditions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, MigrateUp(context.Background(), db))

	q, err := LoadQueries(db)
	require.NoError(t, err)
	return db, q
}

func field(t *testing.T, name string, kind conditions.FieldKind, display string) conditions.FieldDescriptor {
	t.Helper()
	f, err := conditions.NewFieldDescriptor(name, kind, display)
	require.NoError(t, err)
	return f
}

// textIs builds the model name == raw.
func textIs(t *testing.T, modelName, raw string) conditions.ConditionsModel {
	t.Helper()
	v, err := conditions.NewExactValue(raw, "")
	require.NoError(t, err)
	c, err := conditions.NewCondition(field(t, "name", conditions.FieldKindTextField, "Name"), conditions.OpIs, v, conditions.CoordinatorNone)
	require.NoError(t, err)
	m, err := conditions.NewConditionsModel(modelName, c)
	require.NoError(t, err)
	return m
}

// refersTo builds the model <refName> or name == raw.
func refersTo(t *testing.T, modelName, refName, refDisplay string) conditions.ConditionsModel {
	t.Helper()
	ref, err := conditions.NewConditionRef(refName, refDisplay, conditions.CoordinatorNone)
	require.NoError(t, err)
	m, err := conditions.NewConditionsModel(modelName, ref)
	require.NoError(t, err)
	m, err = m.AddCondition(mustOr(t, textIs(t, "tmp", "x")))
	require.NoError(t, err)
	return m
}

func mustOr(t *testing.T, m conditions.ConditionsModel) conditions.Item {
	t.Helper()
	item, err := m.Item(0)
	require.NoError(t, err)
	c := item.(conditions.Condition)
	c, err = c.WithCoordinator(conditions.CoordinatorOr)
	require.NoError(t, err)
	return c
}
