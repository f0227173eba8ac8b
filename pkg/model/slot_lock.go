package model

import "time"

// SlotLock is an advisory lock that serializes reservation attempts against
// a single slot. The _id is derived from the slot id alone, so two requests
// for the same slot always contend on the same document regardless of the
// windows they ask for.
type SlotLock struct {
	ID        string    `bson:"_id" json:"id"`
	SlotID    string    `bson:"slot_id" json:"slot_id"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
