package models

import "time"

// User is a credential record. Email is the unique key and is compared
// exactly as received. Records are never updated or deleted.
type User struct {
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
