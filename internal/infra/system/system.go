// Package system holds the wall clock and id source used by the commands.
package system

import (
	"time"

	"github.com/google/uuid"
)

type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string {
	return uuid.NewString()
}

type Clock struct{}

func (Clock) Now() time.Time {
	return time.Now()
}
