package ids

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// jobNamespace scopes name-based job identifiers. Changing it re-keys every
// job, so it is fixed for the lifetime of the data set.
var jobNamespace = uuid.MustParse("6f1d4a52-9c3e-4f0b-8d7a-2b5e1c9a0f34")

// UUIDGenerator issues random UUIDv4 values for events and outbox rows and
// name-based UUIDv5 values for jobs.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func (UUIDGenerator) JobID(userID string, contractID string) string {
	name := strings.TrimSpace(userID) + "\x00" + strings.TrimSpace(contractID)
	return uuid.NewSHA1(jobNamespace, []byte(name)).String()
}
