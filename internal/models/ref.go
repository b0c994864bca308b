package models

import (
	"encoding/json"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Ref points at a document in another collection. It is either a bare
// Reference(id) or, after a $lookup, Expanded(id, doc). Only the id is
// ever written back to the database.
type Ref[T any] struct {
	id  primitive.ObjectID
	doc *T
}

func Reference[T any](id primitive.ObjectID) Ref[T] {
	return Ref[T]{id: id}
}

func Expanded[T any](id primitive.ObjectID, doc T) Ref[T] {
	return Ref[T]{id: id, doc: &doc}
}

func (r Ref[T]) ID() primitive.ObjectID { return r.id }

// IsZero lets `omitempty` drop unset refs.
func (r Ref[T]) IsZero() bool { return r.id.IsZero() }

// Doc returns the populated document, if this ref was expanded.
func (r Ref[T]) Doc() (T, bool) {
	if r.doc == nil {
		var zero T
		return zero, false
	}
	return *r.doc, true
}

func (r Ref[T]) MarshalBSONValue() (bsontype.Type, []byte, error) {
	if r.IsZero() {
		return bsontype.Null, nil, nil
	}
	return bson.MarshalValue(r.id)
}

func (r *Ref[T]) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	switch t {
	case bsontype.Null, bsontype.Undefined:
		*r = Ref[T]{}
		return nil
	case bsontype.ObjectID:
		var id primitive.ObjectID
		if err := bson.UnmarshalValue(t, data, &id); err != nil {
			return err
		}
		*r = Reference[T](id)
		return nil
	case bsontype.EmbeddedDocument:
		raw := bson.Raw(data)
		id, ok := raw.Lookup("_id").ObjectIDOK()
		if !ok {
			return fmt.Errorf("expanded reference has no ObjectID _id")
		}
		var doc T
		if err := bson.Unmarshal(data, &doc); err != nil {
			return err
		}
		*r = Expanded(id, doc)
		return nil
	default:
		return fmt.Errorf("cannot decode %s into a reference", t)
	}
}

// MarshalJSON renders the id as a hex string, or the whole document when
// expanded.
func (r Ref[T]) MarshalJSON() ([]byte, error) {
	switch {
	case r.IsZero():
		return []byte("null"), nil
	case r.doc != nil:
		return json.Marshal(r.doc)
	default:
		return json.Marshal(r.id.Hex())
	}
}

// UnmarshalJSON accepts what MarshalJSON produces: null, a hex id, or an
// expanded document carrying its own "id".
func (r *Ref[T]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = Ref[T]{}
		return nil
	}
	var hex string
	if err := json.Unmarshal(data, &hex); err == nil {
		id, err := primitive.ObjectIDFromHex(hex)
		if err != nil {
			return err
		}
		*r = Reference[T](id)
		return nil
	}
	var head struct {
		ID primitive.ObjectID `json:"id"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	if head.ID.IsZero() {
		return fmt.Errorf("expanded reference has no id")
	}
	var doc T
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	*r = Expanded(head.ID, doc)
	return nil
}
