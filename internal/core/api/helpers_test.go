package api

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/DEFRA/forms-designer-sub008/internal/conditions"
	"github.com/DEFRA/forms-designer-sub008/internal/core/db"
)

// newTestService wires a service over a migrated SQLite database in a temp
// directory. The audit log writes under the same directory.
func newTestService(t *testing.T) (*ConditionsService, *AuditLog) {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Open("sqlite://" + filepath.Join(dir, "conditions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, db.MigrateUp(context.Background(), conn))
	q, err := db.LoadQueries(conn)
	require.NoError(t, err)

	logger := zaptest.NewLogger(t)
	audit, err := NewAuditLog(dir, logger)
	require.NoError(t, err)

	svc, err := NewConditionsService(db.NewConditionStore(conn, q), db.NewFieldRegistry(q), conditions.NewChecker(), audit, logger)
	require.NoError(t, err)
	return svc, audit
}

func doc(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	require.NoError(t, err)
	return s
}

func textCondition(field, display, raw, coordinator string) map[string]any {
	c := map[string]any{
		"field":    map[string]any{"name": field, "type": "TextField", "display": display},
		"operator": "is",
		"value":    map[string]any{"type": "Value", "value": raw, "display": raw},
	}
	if coordinator != "" {
		c["coordinator"] = coordinator
	}
	return c
}

func refItem(name, display, coordinator string) map[string]any {
	r := map[string]any{"conditionName": name, "conditionDisplayName": display}
	if coordinator != "" {
		r["coordinator"] = coordinator
	}
	return r
}

func model(name string, items ...any) map[string]any {
	if items == nil {
		items = []any{}
	}
	return map[string]any{"name": name, "conditions": items}
}

func registerText(t *testing.T, svc *ConditionsService, name, display string) {
	t.Helper()
	_, err := svc.RegisterField(context.Background(), doc(t, map[string]any{
		"name": name, "type": "TextField", "display": display,
	}))
	require.NoError(t, err)
}

func save(t *testing.T, svc *ConditionsService, displayName string, m map[string]any) (*structpb.Struct, error) {
	t.Helper()
	return svc.SaveCondition(context.Background(), doc(t, map[string]any{
		"displayName": displayName,
		"model":       m,
	}))
}
