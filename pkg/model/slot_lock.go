package model

import "time"

// SlotLock is an advisory lock preventing concurrent booking of the same
// (doctor, date, time) slot. The unique _id insert is the serialization
// point; a TTL index on expires_at reaps locks left behind by crashes.
type SlotLock struct {
	ID        string    `bson:"_id" json:"id"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
