// Package wire defines the coordinator RPC surface. Messages are protobuf
// well-known types, so no generated code is needed on either side.
package wire

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Rincaro/cascading.utils/pkg/cluster"
)

const (
	FieldControllerState = "controller_state"
	FieldWorkerCount     = "worker_count"
	FieldMaxReduceTasks  = "max_reduce_tasks"

	FieldWorkerID    = "worker_id"
	FieldAddress     = "address"
	FieldReduceSlots = "reduce_slots"
)

var ErrInvalidRegistration = errors.New("invalid worker registration")

// Registration is what a worker announces when it joins.
type Registration struct {
	WorkerID    uuid.UUID
	Address     string
	ReduceSlots int
}

func StatusToStruct(status cluster.Status) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		FieldControllerState: status.ControllerState.String(),
		FieldWorkerCount:     status.WorkerCount,
		FieldMaxReduceTasks:  status.MaxReduceTasks,
	})
}

// StatusFromStruct rejects missing fields and counts that are negative or
// not whole numbers.
func StatusFromStruct(s *structpb.Struct) (cluster.Status, error) {
	fields := s.GetFields()

	stateValue, ok := fields[FieldControllerState]
	if !ok {
		return cluster.Status{}, fmt.Errorf("%w: missing %s", cluster.ErrInvalidStatus, FieldControllerState)
	}
	state, err := cluster.ParseControllerState(stateValue.GetStringValue())
	if err != nil {
		return cluster.Status{}, err
	}

	workers, err := count(fields, FieldWorkerCount, cluster.ErrInvalidStatus)
	if err != nil {
		return cluster.Status{}, err
	}
	reduce, err := count(fields, FieldMaxReduceTasks, cluster.ErrInvalidStatus)
	if err != nil {
		return cluster.Status{}, err
	}

	return cluster.Status{ControllerState: state, WorkerCount: workers, MaxReduceTasks: reduce}, nil
}

func RegistrationToStruct(r Registration) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		FieldWorkerID:    r.WorkerID.String(),
		FieldAddress:     r.Address,
		FieldReduceSlots: r.ReduceSlots,
	})
}

func RegistrationFromStruct(s *structpb.Struct) (Registration, error) {
	fields := s.GetFields()

	id, err := uuid.Parse(fields[FieldWorkerID].GetStringValue())
	if err != nil {
		return Registration{}, fmt.Errorf("%w: invalid worker ID format, expected UUID: %w", ErrInvalidRegistration, err)
	}
	slots, err := count(fields, FieldReduceSlots, ErrInvalidRegistration)
	if err != nil {
		return Registration{}, err
	}

	return Registration{
		WorkerID:    id,
		Address:     fields[FieldAddress].GetStringValue(),
		ReduceSlots: slots,
	}, nil
}

// count reads a non-negative whole number, wrapping failures in sentinel.
func count(fields map[string]*structpb.Value, name string, sentinel error) (int, error) {
	v, ok := fields[name]
	if !ok {
		return 0, fmt.Errorf("%w: missing %s", sentinel, name)
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, fmt.Errorf("%w: %s is not a number", sentinel, name)
	}
	f := n.NumberValue
	if f < 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %s = %v", sentinel, name, f)
	}
	return int(f), nil
}
