package entity

import (
	"time"
)

// User is the aggregate root for the account domain.
// Passwords are stored as bcrypt hashes in PasswordHash.
//
// PlaceIDs is the ordered list of places this user owns. It is a set of
// back-references into the places table: every id here must name a place
// whose Creator is this user. Only the place service mutates it, and always
// inside the same transaction as the matching place write.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	ImageURL     string
	PlaceIDs     []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AttachPlace appends a place reference to the in-memory list. Persistence
// is the caller's job (repository Update inside a transaction).
func (u *User) AttachPlace(placeID string) {
	u.PlaceIDs = append(u.PlaceIDs, placeID)
}

// DetachPlace removes a place reference from the in-memory list.
func (u *User) DetachPlace(placeID string) {
	out := u.PlaceIDs[:0]
	for _, id := range u.PlaceIDs {
		if id != placeID {
			out = append(out, id)
		}
	}
	u.PlaceIDs = out
}

// OwnsPlace reports whether the user's reference list contains placeID.
func (u *User) OwnsPlace(placeID string) bool {
	for _, id := range u.PlaceIDs {
		if id == placeID {
			return true
		}
	}
	return false
}
