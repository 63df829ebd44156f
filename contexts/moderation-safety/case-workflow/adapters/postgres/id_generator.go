package postgresadapter

import (
	"time"

	"caseflow/contexts/moderation-safety/case-workflow/ports"

	"github.com/google/uuid"
)

type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string {
	return uuid.NewString()
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

var _ ports.IDGenerator = UUIDGenerator{}
var _ ports.Clock = SystemClock{}
