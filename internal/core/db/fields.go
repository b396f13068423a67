package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/DEFRA/forms-designer-sub008/internal/conditions"
	"github.com/DEFRA/forms-designer-sub008/internal/types"
)

// FieldRegistry records the form fields conditions may examine. Saving a
// condition checks each predicate's field against it, so a condition never
// names a field the form does not have.
type FieldRegistry struct {
	q *Queries
}

type fieldRow struct {
	Name      string `db:"name"`
	Kind      string `db:"kind"`
	Display   string `db:"display"`
	UpdatedAt int64  `db:"updated_at"`
}

func (r fieldRow) descriptor() (conditions.FieldDescriptor, error) {
	kind, err := conditions.ParseFieldKind(r.Kind)
	if err != nil {
		return conditions.FieldDescriptor{}, err
	}
	return conditions.NewFieldDescriptor(r.Name, kind, r.Display)
}

// NewFieldRegistry creates a registry over q.
func NewFieldRegistry(q *Queries) *FieldRegistry {
	return &FieldRegistry{q: q}
}

// RegisterField inserts f or replaces the kind and display of an existing
// field with the same name.
func (r *FieldRegistry) RegisterField(ctx context.Context, f conditions.FieldDescriptor) error {
	if f.Name() == "" {
		return fmt.Errorf("%w: descriptor is not initialised", types.ErrInvalidField)
	}
	_, err := r.q.Exec(ctx, "upsert-field", f.Name(), string(f.Kind()), f.Display(), time.Now().UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to register field %s: %w", f.Name(), err)
	}
	return nil
}

// ResolveField returns the registered descriptor for name.
// Fails with ErrFieldNotRegistered when the name is unknown.
func (r *FieldRegistry) ResolveField(ctx context.Context, name string) (conditions.FieldDescriptor, error) {
	var row fieldRow
	if err := r.q.Get(ctx, "get-field", &row, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return conditions.FieldDescriptor{}, fmt.Errorf("%w: %s", types.ErrFieldNotRegistered, name)
		}
		return conditions.FieldDescriptor{}, fmt.Errorf("failed to get field %s: %w", name, err)
	}
	return row.descriptor()
}

// ListFields returns every registered field ordered by name.
func (r *FieldRegistry) ListFields(ctx context.Context) ([]conditions.FieldDescriptor, error) {
	var rows []fieldRow
	if err := r.q.Select(ctx, "list-fields", &rows); err != nil {
		return nil, fmt.Errorf("failed to list fields: %w", err)
	}
	fields := make([]conditions.FieldDescriptor, 0, len(rows))
	for _, row := range rows {
		f, err := row.descriptor()
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", row.Name, err)
		}
		fields = append(fields, f)
	}
	return fields, nil
}

// DeleteField removes name from the registry. Conditions already stored
// are left as they are.
func (r *FieldRegistry) DeleteField(ctx context.Context, name string) error {
	res, err := r.q.Exec(ctx, "delete-field", name)
	if err != nil {
		return fmt.Errorf("failed to delete field %s: %w", name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", types.ErrFieldNotRegistered, name)
	}
	return nil
}

// CheckFields verifies every field m examines is registered with the same
// kind. Display labels may differ: they are presentation only.
func (r *FieldRegistry) CheckFields(ctx context.Context, m conditions.ConditionsModel) error {
	for _, f := range m.Fields() {
		registered, err := r.ResolveField(ctx, f.Name())
		if err != nil {
			return err
		}
		if registered.Kind() != f.Kind() {
			return fmt.Errorf("%w: %s is registered as %s, condition uses %s",
				types.ErrFieldNotRegistered, f.Name(), registered.Kind(), f.Kind())
		}
	}
	return nil
}
