// Package api provides the gRPC ConditionsService: rendering and checking
// condition models, the field registry and the store of named conditions.
package api

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/DEFRA/forms-designer-sub008/internal/conditions"
	"github.com/DEFRA/forms-designer-sub008/internal/core/db"
	"github.com/DEFRA/forms-designer-sub008/internal/types"
)

// ConditionRepository stores named conditions. *db.ConditionStore
// implements it.
type ConditionRepository interface {
	Save(ctx context.Context, displayName string, m conditions.ConditionsModel) (db.ConditionRecord, bool, error)
	Get(ctx context.Context, name string) (db.ConditionRecord, error)
	List(ctx context.Context) ([]db.ConditionRecord, error)
	Delete(ctx context.Context, name string) error
	Rename(ctx context.Context, oldName, newName, newDisplay string) (db.ConditionRecord, error)
}

// FieldCatalog resolves the fields conditions may examine. *db.FieldRegistry
// implements it.
type FieldCatalog interface {
	RegisterField(ctx context.Context, f conditions.FieldDescriptor) error
	CheckFields(ctx context.Context, m conditions.ConditionsModel) error
}

// SaveConditionResponse reports the stored condition and whether it was new.
type SaveConditionResponse struct {
	Condition ConditionMessage `json:"condition"`
	Created   bool             `json:"created"`
}

// ConditionsService implements ConditionsServer. Thin orchestration layer
// delegating to the conditions core and the db package.
type ConditionsService struct {
	store   ConditionRepository
	fields  FieldCatalog
	checker *conditions.Checker
	audit   *AuditLog
	logger  *zap.Logger
}

var _ ConditionsServer = (*ConditionsService)(nil)

// NewConditionsService creates a service over its dependencies. audit may
// be nil to disable the audit log.
func NewConditionsService(store ConditionRepository, fields FieldCatalog, checker *conditions.Checker, audit *AuditLog, logger *zap.Logger) (*ConditionsService, error) {
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if fields == nil {
		return nil, fmt.Errorf("fields cannot be nil")
	}
	if checker == nil {
		return nil, fmt.Errorf("checker cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConditionsService{
		store:   store,
		fields:  fields,
		checker: checker,
		audit:   audit,
		logger:  logger,
	}, nil
}

// Render renders a model without storing it.
func (s *ConditionsService) Render(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req RenderRequest
	if err := Decode(in, &req); err != nil {
		return nil, err
	}
	m, err := decodeModel(req.Model)
	if err != nil {
		return nil, ToStatus(err)
	}
	expression, err := s.checker.CheckModel(m)
	if err != nil {
		return nil, ToStatus(err)
	}

	fields := make([]string, 0)
	for _, f := range m.Fields() {
		fields = append(fields, f.Name())
	}
	references := m.References()
	if references == nil {
		references = []string{}
	}
	return Encode(RenderResponse{
		Presentation: m.PresentationString(),
		Expression:   expression,
		References:   references,
		Fields:       fields,
	})
}

// Operators lists the operators for a field kind, or the conditionable
// kinds when no kind is given.
func (s *ConditionsService) Operators(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req OperatorsRequest
	if err := Decode(in, &req); err != nil {
		return nil, err
	}
	if req.Kind == "" {
		var resp OperatorsResponse
		for _, k := range conditions.ConditionableFieldKinds() {
			resp.Kinds = append(resp.Kinds, string(k))
		}
		return Encode(resp)
	}

	kind, err := conditions.ParseFieldKind(req.Kind)
	if err != nil {
		return nil, ToStatus(err)
	}
	if !kind.IsConditionable() {
		return nil, ToStatus(fmt.Errorf("%w: %s does not support conditions", types.ErrInvalidField, kind))
	}
	return Encode(operatorsFor(kind))
}

func operatorsFor(kind conditions.FieldKind) OperatorsResponse {
	resp := OperatorsResponse{Kind: string(kind)}
	for _, op := range conditions.OperatorNames(kind) {
		info := OperatorInfo{Name: string(op), Relative: conditions.IsRelativeOperator(kind, op)}
		for _, u := range conditions.OperatorUnits(kind, op) {
			info.Units = append(info.Units, string(u))
		}
		resp.Operators = append(resp.Operators, info)
	}
	return resp
}

// RegisterField adds or replaces a field in the registry.
func (s *ConditionsService) RegisterField(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req FieldMessage
	if err := Decode(in, &req); err != nil {
		return nil, err
	}
	kind, err := conditions.ParseFieldKind(req.Type)
	if err != nil {
		return nil, ToStatus(err)
	}
	f, err := conditions.NewFieldDescriptor(req.Name, kind, req.Display)
	if err != nil {
		return nil, ToStatus(err)
	}
	if err := s.fields.RegisterField(ctx, f); err != nil {
		return nil, ToStatus(err)
	}
	s.logger.Info("field registered", zap.String("field", f.Name()), zap.String("kind", string(f.Kind())))
	return Encode(fieldMessage(f))
}

// SaveCondition creates the condition model.name, or replaces it when it
// already exists. Fields must be registered and the expression must
// compile; the store checks references and cycles as it writes.
func (s *ConditionsService) SaveCondition(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req SaveConditionRequest
	if err := Decode(in, &req); err != nil {
		return nil, err
	}
	m, err := decodeModel(req.Model)
	if err != nil {
		return nil, ToStatus(err)
	}
	if m.Name() == "" {
		return nil, status.Error(codes.InvalidArgument, "condition name is required")
	}
	if !m.HasConditions() {
		return nil, status.Error(codes.InvalidArgument, "condition must contain at least one item")
	}
	displayName := req.DisplayName
	if displayName == "" {
		displayName = m.Name()
	}

	if err := s.fields.CheckFields(ctx, m); err != nil {
		return nil, ToStatus(err)
	}
	if _, err := s.checker.CheckModel(m); err != nil {
		return nil, ToStatus(err)
	}

	rec, created, err := s.store.Save(ctx, displayName, m)
	if err != nil {
		return nil, ToStatus(err)
	}

	action := "update"
	if created {
		action = "create"
	}
	s.audit.Record(AuditEntry{Action: action, Name: rec.Name, Expression: rec.Expression})
	s.logger.Info("condition saved",
		zap.String("condition", rec.Name),
		zap.String("action", action),
		zap.String("id", string(rec.ID)))

	return Encode(SaveConditionResponse{Condition: conditionMessage(rec), Created: created})
}

// GetCondition returns a stored condition.
func (s *ConditionsService) GetCondition(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req NameRequest
	if err := Decode(in, &req); err != nil {
		return nil, err
	}
	rec, err := s.store.Get(ctx, req.Name)
	if err != nil {
		return nil, ToStatus(err)
	}
	return Encode(conditionMessage(rec))
}

// ListConditions returns every stored condition ordered by name.
func (s *ConditionsService) ListConditions(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	recs, err := s.store.List(ctx)
	if err != nil {
		return nil, ToStatus(err)
	}
	resp := ListConditionsResponse{Conditions: make([]ConditionMessage, 0, len(recs))}
	for _, rec := range recs {
		resp.Conditions = append(resp.Conditions, conditionMessage(rec))
	}
	return Encode(resp)
}

// DeleteCondition removes a stored condition that nothing references.
func (s *ConditionsService) DeleteCondition(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req NameRequest
	if err := Decode(in, &req); err != nil {
		return nil, err
	}
	if err := s.store.Delete(ctx, req.Name); err != nil {
		return nil, ToStatus(err)
	}
	s.audit.Record(AuditEntry{Action: "delete", Name: req.Name})
	s.logger.Info("condition deleted", zap.String("condition", req.Name))
	return Encode(NameRequest{Name: req.Name})
}

// RenameCondition renames a stored condition and rewrites every reference
// to it.
func (s *ConditionsService) RenameCondition(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req RenameConditionRequest
	if err := Decode(in, &req); err != nil {
		return nil, err
	}
	if req.NewDisplayName == "" {
		req.NewDisplayName = req.NewName
	}
	rec, err := s.store.Rename(ctx, req.Name, req.NewName, req.NewDisplayName)
	if err != nil {
		return nil, ToStatus(err)
	}
	s.audit.Record(AuditEntry{Action: "rename", Name: req.Name, NewName: rec.Name, Expression: rec.Expression})
	s.logger.Info("condition renamed", zap.String("condition", req.Name), zap.String("new_name", rec.Name))
	return Encode(conditionMessage(rec))
}

func decodeModel(raw []byte) (conditions.ConditionsModel, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return conditions.ConditionsModel{}, fmt.Errorf("%w: model is required", types.ErrMalformedItem)
	}
	return conditions.FromJSON(raw)
}
