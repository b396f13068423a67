package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/DEFRA/forms-designer-sub008/internal/conditions"
	"github.com/DEFRA/forms-designer-sub008/internal/types"
)

/*
 * Named condition store.
 *
 * Each record is one top-level condition: the name a ConditionRef uses, a
 * display name, the JSON model and the strings rendered from it. Rendered
 * strings are recomputed on every write so readers never render.
 *
 * Write workflow:
 *   1. Validate the name (same rules as a reference name)
 *   2. Render presentation and expression from the model
 *   3. Write inside a transaction, checking name uniqueness first
 *
 * Rename rewrites references in every stored model in the same transaction,
 * so a committed rename never leaves dangling references behind.
 *
 * Writers take a table lock first (immediate transactions on SQLite), so
 * Save's reference and cycle checks see every committed write and no
 * concurrent Delete or Save can invalidate them before the commit.
 */

// ConditionRecord is one stored named condition.
type ConditionRecord struct {
	ID           types.ConditionID `db:"condition_id"`
	Name         string            `db:"name"`
	DisplayName  string            `db:"display_name"`
	Definition   string            `db:"definition"`
	Presentation string            `db:"presentation"`
	Expression   string            `db:"expression"`
	CreatedAt    int64             `db:"created_at"`
	UpdatedAt    int64             `db:"updated_at"`
}

// Model decodes the stored definition.
func (r ConditionRecord) Model() (conditions.ConditionsModel, error) {
	return conditions.FromJSON([]byte(r.Definition))
}

// Created returns the creation time.
func (r ConditionRecord) Created() time.Time { return time.UnixMilli(r.CreatedAt).UTC() }

// Updated returns the time of the last write.
func (r ConditionRecord) Updated() time.Time { return time.UnixMilli(r.UpdatedAt).UTC() }

// ConditionStore persists named conditions.
type ConditionStore struct {
	db *sqlx.DB
	q  *Queries
}

// NewConditionStore creates a store over db using the named queries q.
func NewConditionStore(db *sqlx.DB, q *Queries) *ConditionStore {
	return &ConditionStore{db: db, q: q}
}

// Create stores m under m.Name(). Fails with ErrDuplicateConditionName when
// the name is taken and ErrInvalidReference when the name could not be
// referenced from another condition.
func (s *ConditionStore) Create(ctx context.Context, displayName string, m conditions.ConditionsModel) (ConditionRecord, error) {
	rec, err := newRecord(m, displayName)
	if err != nil {
		return ConditionRecord{}, err
	}
	now := time.Now().UTC().UnixMilli()
	rec.ID = types.NewConditionID()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	err = inTx(ctx, s.db, s.q, func(q *Queries) error {
		if err := lockConditions(ctx, q); err != nil {
			return err
		}
		if _, err := getByName(ctx, q, rec.Name); err == nil {
			return fmt.Errorf("%w: %s", types.ErrDuplicateConditionName, rec.Name)
		} else if !errors.Is(err, types.ErrConditionNotFound) {
			return err
		}
		return insertRecord(ctx, q, rec)
	})
	if err != nil {
		return ConditionRecord{}, err
	}
	return rec, nil
}

// Update replaces the model and display name of the condition m.Name().
// Fails with ErrConditionNotFound when no such condition is stored.
func (s *ConditionStore) Update(ctx context.Context, displayName string, m conditions.ConditionsModel) (ConditionRecord, error) {
	rec, err := newRecord(m, displayName)
	if err != nil {
		return ConditionRecord{}, err
	}

	err = inTx(ctx, s.db, s.q, func(q *Queries) error {
		if err := lockConditions(ctx, q); err != nil {
			return err
		}
		existing, err := getByName(ctx, q, rec.Name)
		if err != nil {
			return err
		}
		rec.ID = existing.ID
		rec.CreatedAt = existing.CreatedAt
		rec.UpdatedAt = time.Now().UTC().UnixMilli()
		return writeRecord(ctx, q, rec)
	})
	if err != nil {
		return ConditionRecord{}, err
	}
	return rec, nil
}

// Save creates the condition m.Name(), or replaces its model and display
// name when it exists, and reports whether it was created. Every reference
// in m must name a stored condition (ErrUnknownConditionRef) and no chain
// of references may lead back to m (ErrInvalidReference). The checks and
// the write share one transaction.
func (s *ConditionStore) Save(ctx context.Context, displayName string, m conditions.ConditionsModel) (ConditionRecord, bool, error) {
	rec, err := newRecord(m, displayName)
	if err != nil {
		return ConditionRecord{}, false, err
	}

	var created bool
	err = inTx(ctx, s.db, s.q, func(q *Queries) error {
		if err := lockConditions(ctx, q); err != nil {
			return err
		}
		if err := checkReferences(ctx, q, m); err != nil {
			return err
		}

		now := time.Now().UTC().UnixMilli()
		existing, err := getByName(ctx, q, rec.Name)
		switch {
		case err == nil:
			rec.ID, rec.CreatedAt, rec.UpdatedAt = existing.ID, existing.CreatedAt, now
			return writeRecord(ctx, q, rec)
		case errors.Is(err, types.ErrConditionNotFound):
			created = true
			rec.ID, rec.CreatedAt, rec.UpdatedAt = types.NewConditionID(), now, now
			return insertRecord(ctx, q, rec)
		default:
			return err
		}
	})
	if err != nil {
		return ConditionRecord{}, false, err
	}
	return rec, created, nil
}

// Get returns the condition called name.
func (s *ConditionStore) Get(ctx context.Context, name string) (ConditionRecord, error) {
	return getByName(ctx, s.q, name)
}

// List returns every stored condition ordered by name.
func (s *ConditionStore) List(ctx context.Context) ([]ConditionRecord, error) {
	var recs []ConditionRecord
	if err := s.q.Select(ctx, "list-conditions", &recs); err != nil {
		return nil, fmt.Errorf("failed to list conditions: %w", err)
	}
	return recs, nil
}

// Exists reports whether a condition called name is stored.
func (s *ConditionStore) Exists(ctx context.Context, name string) (bool, error) {
	_, err := getByName(ctx, s.q, name)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, types.ErrConditionNotFound):
		return false, nil
	default:
		return false, err
	}
}

// Delete removes the condition called name. Fails with ErrConditionInUse
// while another stored condition references it.
func (s *ConditionStore) Delete(ctx context.Context, name string) error {
	return inTx(ctx, s.db, s.q, func(q *Queries) error {
		if err := lockConditions(ctx, q); err != nil {
			return err
		}
		rec, err := getByName(ctx, q, name)
		if err != nil {
			return err
		}
		users, err := referencing(ctx, q, name)
		if err != nil {
			return err
		}
		for _, u := range users {
			if u.Name != name {
				return fmt.Errorf("%w: %s is used by %s", types.ErrConditionInUse, name, u.Name)
			}
		}
		_, err = q.Exec(ctx, "delete-condition", rec.ID)
		return err
	})
}

// Rename renames the condition oldName to newName with display name
// newDisplay, and rewrites every stored reference to it.
func (s *ConditionStore) Rename(ctx context.Context, oldName, newName, newDisplay string) (ConditionRecord, error) {
	if _, err := conditions.NewConditionRef(newName, newDisplay, conditions.CoordinatorNone); err != nil {
		return ConditionRecord{}, err
	}

	var renamed ConditionRecord
	err := inTx(ctx, s.db, s.q, func(q *Queries) error {
		if err := lockConditions(ctx, q); err != nil {
			return err
		}
		rec, err := getByName(ctx, q, oldName)
		if err != nil {
			return err
		}
		if newName != oldName {
			if _, err := getByName(ctx, q, newName); err == nil {
				return fmt.Errorf("%w: %s", types.ErrDuplicateConditionName, newName)
			} else if !errors.Is(err, types.ErrConditionNotFound) {
				return err
			}
		}

		users, err := referencing(ctx, q, oldName)
		if err != nil {
			return err
		}
		now := time.Now().UTC().UnixMilli()
		for _, u := range users {
			if u.ID == rec.ID {
				continue
			}
			m, err := u.Model()
			if err != nil {
				return fmt.Errorf("condition %s: %w", u.Name, err)
			}
			if m, err = m.RenameReference(oldName, newName, newDisplay); err != nil {
				return err
			}
			updated, err := newRecord(m, u.DisplayName)
			if err != nil {
				return fmt.Errorf("condition %s: %w", u.Name, err)
			}
			updated.ID, updated.CreatedAt, updated.UpdatedAt = u.ID, u.CreatedAt, now
			if err := writeRecord(ctx, q, updated); err != nil {
				return err
			}
		}

		m, err := rec.Model()
		if err != nil {
			return err
		}
		if m, err = m.RenameReference(oldName, newName, newDisplay); err != nil {
			return err
		}
		renamed, err = newRecord(m.WithName(newName), newDisplay)
		if err != nil {
			return err
		}
		renamed.ID, renamed.CreatedAt, renamed.UpdatedAt = rec.ID, rec.CreatedAt, now
		return writeRecord(ctx, q, renamed)
	})
	if err != nil {
		return ConditionRecord{}, err
	}
	return renamed, nil
}

// newRecord validates the name and renders m.
func newRecord(m conditions.ConditionsModel, displayName string) (ConditionRecord, error) {
	if len(m.Name()) > types.MaxNameLength {
		return ConditionRecord{}, fmt.Errorf("%w: name longer than %d characters", types.ErrInvalidReference, types.MaxNameLength)
	}
	if _, err := conditions.NewConditionRef(m.Name(), displayName, conditions.CoordinatorNone); err != nil {
		return ConditionRecord{}, err
	}
	definition, err := m.MarshalJSON()
	if err != nil {
		return ConditionRecord{}, err
	}
	expression, err := m.Expression()
	if err != nil {
		return ConditionRecord{}, err
	}
	return ConditionRecord{
		Name:         m.Name(),
		DisplayName:  displayName,
		Definition:   string(definition),
		Presentation: m.PresentationString(),
		Expression:   expression,
	}, nil
}

// lockConditions blocks other writers until the transaction ends. SQLite
// connections already begin immediate transactions, see sqliteDefaults.
func lockConditions(ctx context.Context, q *Queries) error {
	if q.ext.DriverName() != "postgres" {
		return nil
	}
	if _, err := q.ext.ExecContext(ctx, "LOCK TABLE conditions IN SHARE ROW EXCLUSIVE MODE"); err != nil {
		return fmt.Errorf("failed to lock conditions: %w", err)
	}
	return nil
}

// checkReferences rejects references to conditions that are not stored and
// reference chains that lead back to m. Stored models referencing missing
// conditions are not m's concern and are skipped.
func checkReferences(ctx context.Context, q *Queries, m conditions.ConditionsModel) error {
	direct := m.References()
	for _, name := range direct {
		if name == m.Name() {
			return fmt.Errorf("%w: %s refers to itself", types.ErrInvalidReference, name)
		}
		if _, err := getByName(ctx, q, name); errors.Is(err, types.ErrConditionNotFound) {
			return fmt.Errorf("%w: %s", types.ErrUnknownConditionRef, name)
		} else if err != nil {
			return err
		}
	}

	visited := map[string]bool{}
	pending := slices.Clone(direct)
	for len(pending) > 0 {
		name := pending[0]
		pending = pending[1:]
		if name == m.Name() {
			return fmt.Errorf("%w: %s is reached again through its references", types.ErrInvalidReference, name)
		}
		if visited[name] {
			continue
		}
		visited[name] = true

		rec, err := getByName(ctx, q, name)
		if errors.Is(err, types.ErrConditionNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		ref, err := rec.Model()
		if err != nil {
			return fmt.Errorf("condition %s: %w", name, err)
		}
		pending = append(pending, ref.References()...)
	}
	return nil
}

func insertRecord(ctx context.Context, q *Queries, rec ConditionRecord) error {
	_, err := q.Exec(ctx, "insert-condition",
		rec.ID, rec.Name, rec.DisplayName, rec.Definition,
		rec.Presentation, rec.Expression, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert condition %s: %w", rec.Name, err)
	}
	return nil
}

func writeRecord(ctx context.Context, q *Queries, rec ConditionRecord) error {
	_, err := q.Exec(ctx, "update-condition",
		rec.Name, rec.DisplayName, rec.Definition, rec.Presentation, rec.Expression,
		rec.UpdatedAt, rec.ID)
	if err != nil {
		return fmt.Errorf("failed to write condition %s: %w", rec.Name, err)
	}
	return nil
}

func getByName(ctx context.Context, q *Queries, name string) (ConditionRecord, error) {
	var rec ConditionRecord
	if err := q.Get(ctx, "get-condition-by-name", &rec, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ConditionRecord{}, fmt.Errorf("%w: %s", types.ErrConditionNotFound, name)
		}
		return ConditionRecord{}, fmt.Errorf("failed to get condition %s: %w", name, err)
	}
	return rec, nil
}

// referencing returns the stored conditions whose model references name.
func referencing(ctx context.Context, q *Queries, name string) ([]ConditionRecord, error) {
	var all []ConditionRecord
	if err := q.Select(ctx, "list-conditions", &all); err != nil {
		return nil, fmt.Errorf("failed to list conditions: %w", err)
	}
	var users []ConditionRecord
	for _, rec := range all {
		m, err := rec.Model()
		if err != nil {
			return nil, fmt.Errorf("condition %s: %w", rec.Name, err)
		}
		if slices.Contains(m.References(), name) {
			users = append(users, rec)
		}
	}
	return users, nil
}
