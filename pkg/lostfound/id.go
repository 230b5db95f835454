package lostfound

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ParseItemID parses the external form of an item ID. Anything that is not
// 24 hex characters fails with ErrInvalidIdentifier.
func ParseItemID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidIdentifier
	}
	return oid, nil
}

// NewItemID returns a fresh item ID.
func NewItemID() primitive.ObjectID {
	return primitive.NewObjectID()
}
