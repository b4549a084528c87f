package domain

import "go.mongodb.org/mongo-driver/bson/primitive"

// NewID generates a fresh document identifier (24-char ObjectID hex).
func NewID() string {
	return primitive.NewObjectID().Hex()
}

// ValidID reports whether s has the shape of a document identifier.
// Identifiers that do not parse can never name a stored document, so
// lookups treat them as not found rather than rejecting them outright.
func ValidID(s string) bool {
	_, err := primitive.ObjectIDFromHex(s)
	return err == nil
}
