package ids

import "go.mongodb.org/mongo-driver/bson/primitive"

// New returns a fresh 24-character hex identifier. Every store backend uses
// the same ObjectID format so ids stay portable between them.
func New() string {
	return primitive.NewObjectID().Hex()
}

func Valid(id string) bool {
	return len(id) == 24 && primitive.IsValidObjectID(id)
}
