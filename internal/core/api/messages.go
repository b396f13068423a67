package api

import (
	"encoding/json"
	"fmt"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/DEFRA/forms-designer-sub008/internal/conditions"
	"github.com/DEFRA/forms-designer-sub008/internal/core/db"
)

// Request and response documents. Field names are the JSON keys carried in
// the google.protobuf.Struct messages.

// RenderRequest carries a model to render without storing it.
type RenderRequest struct {
	Model json.RawMessage `json:"model"`
}

// RenderResponse holds both renderings of a model.
type RenderResponse struct {
	Presentation string   `json:"presentation"`
	Expression   string   `json:"expression"`
	References   []string `json:"references"`
	Fields       []string `json:"fields"`
}

// OperatorsRequest selects a field kind. An empty kind lists the kinds
// that support conditions.
type OperatorsRequest struct {
	Kind string `json:"kind"`
}

// OperatorInfo describes one operator offered for a kind.
type OperatorInfo struct {
	Name     string   `json:"name"`
	Relative bool     `json:"relative"`
	Units    []string `json:"units,omitempty"`
}

// OperatorsResponse lists operators for a kind, or the conditionable kinds.
type OperatorsResponse struct {
	Kind      string         `json:"kind,omitempty"`
	Operators []OperatorInfo `json:"operators,omitempty"`
	Kinds     []string       `json:"kinds,omitempty"`
}

// FieldMessage is a registered form field.
type FieldMessage struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Display string `json:"display"`
}

// SaveConditionRequest creates or replaces the condition model.name.
type SaveConditionRequest struct {
	DisplayName string          `json:"displayName"`
	Model       json.RawMessage `json:"model"`
}

// NameRequest addresses a stored condition.
type NameRequest struct {
	Name string `json:"name"`
}

// RenameConditionRequest renames a stored condition.
type RenameConditionRequest struct {
	Name           string `json:"name"`
	NewName        string `json:"newName"`
	NewDisplayName string `json:"newDisplayName"`
}

// ConditionMessage is a stored condition.
type ConditionMessage struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	DisplayName  string          `json:"displayName"`
	Model        json.RawMessage `json:"model"`
	Presentation string          `json:"presentation"`
	Expression   string          `json:"expression"`
	CreatedAt    string          `json:"createdAt"`
	UpdatedAt    string          `json:"updatedAt"`
}

// ListConditionsResponse lists stored conditions.
type ListConditionsResponse struct {
	Conditions []ConditionMessage `json:"conditions"`
}

func conditionMessage(rec db.ConditionRecord) ConditionMessage {
	return ConditionMessage{
		ID:           string(rec.ID),
		Name:         rec.Name,
		DisplayName:  rec.DisplayName,
		Model:        json.RawMessage(rec.Definition),
		Presentation: rec.Presentation,
		Expression:   rec.Expression,
		CreatedAt:    rec.Created().Format(time.RFC3339Nano),
		UpdatedAt:    rec.Updated().Format(time.RFC3339Nano),
	}
}

func fieldMessage(f conditions.FieldDescriptor) FieldMessage {
	return FieldMessage{Name: f.Name(), Type: string(f.Kind()), Display: f.Display()}
}

// Decode converts a Struct document into dst. A malformed document is the
// caller's fault and reported as InvalidArgument.
func Decode(in *structpb.Struct, dst any) error {
	if in == nil {
		in = &structpb.Struct{}
	}
	data, err := protojson.Marshal(in)
	if err != nil {
		return status.Errorf(codes.InvalidArgument, "invalid request: %v", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return status.Errorf(codes.InvalidArgument, "invalid request: %v", err)
	}
	return nil
}

// Encode converts src into a Struct document. src must encode as a JSON
// object.
func Encode(src any) (*structpb.Struct, error) {
	data, err := json.Marshal(src)
	if err != nil {
		return nil, fmt.Errorf("failed to encode response: %w", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("failed to encode response: %w", err)
	}
	return out, nil
}
