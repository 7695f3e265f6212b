package models

import (
	"github.com/google/uuid"
)

// assignID fills an empty primary key so inserts work the same on postgres and sqlite.
func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
