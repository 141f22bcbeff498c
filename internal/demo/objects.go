package demo

import (
	"fmt"
	"sync/atomic"

	"github.com/mappool/mappool/pkg/pool"
)

// ObjectType is the category used as pool key.
type ObjectType uint8

const (
	// TypeVehicle marks Vehicle objects
	TypeVehicle ObjectType = 1
	// TypeTank marks Tank objects
	TypeTank ObjectType = 2
)

// ObjectTypes lists every category in key order.
var ObjectTypes = []ObjectType{TypeVehicle, TypeTank}

func (t ObjectType) String() string {
	switch t {
	case TypeVehicle:
		return "vehicle"
	case TypeTank:
		return "tank"
	default:
		return fmt.Sprintf("object_type(%d)", uint8(t))
	}
}

// Object is the common interface of pooled demo objects.
type Object interface {
	Type() ObjectType
	ID() int64
}

type base struct {
	kind ObjectType
	id   int64
}

func (b *base) Type() ObjectType { return b.kind }
func (b *base) ID() int64        { return b.id }

// Vehicle is a demo object.
type Vehicle struct {
	base
}

// Tank is a demo object.
type Tank struct {
	base
}

// NewObject constructs an object of the given type.
func NewObject(t ObjectType, id int64) (Object, error) {
	switch t {
	case TypeVehicle:
		return &Vehicle{base{kind: t, id: id}}, nil
	case TypeTank:
		return &Tank{base{kind: t, id: id}}, nil
	default:
		return nil, fmt.Errorf("unknown object type %s", t)
	}
}

// Tracker hands out reference-counted objects and counts how many are
// still alive, so drivers can check that the pool frees what it should.
type Tracker struct {
	nextID  atomic.Int64
	created atomic.Int64
	freed   atomic.Int64
}

// New constructs an object and wraps it in a handle whose release marks it
// freed.
func (tr *Tracker) New(t ObjectType) (*pool.Ref[Object], error) {
	obj, err := NewObject(t, tr.nextID.Add(1))
	if err != nil {
		return nil, err
	}
	tr.created.Add(1)
	return pool.NewRef(obj, func(Object) { tr.freed.Add(1) }), nil
}

// Created returns the number of objects constructed.
func (tr *Tracker) Created() int64 { return tr.created.Load() }

// Freed returns the number of objects whose last handle was released.
func (tr *Tracker) Freed() int64 { return tr.freed.Load() }

// Live returns the number of objects not freed yet.
func (tr *Tracker) Live() int64 { return tr.created.Load() - tr.freed.Load() }
