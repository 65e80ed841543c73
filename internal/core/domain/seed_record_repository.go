package domain

import (
	"context"
)

const (
	SeedRecordCreated SeedRecordEventType = iota
	SeedRecordUpdated
	SeedRecordDeleted
)

var (
	seedRecordTypeString = map[SeedRecordEventType]string{
		SeedRecordCreated: "SeedRecordCreated",
		SeedRecordUpdated: "SeedRecordUpdated",
		SeedRecordDeleted: "SeedRecordDeleted",
	}
)

type SeedRecordEventType int

func (t SeedRecordEventType) String() string {
	return seedRecordTypeString[t]
}

// SeedRecordEvent holds info about an event occured within the repository.
type SeedRecordEvent struct {
	EventType SeedRecordEventType
	GroupID   string
}

// SeedRecordRepository is the abstraction for any kind of database intended
// to persist encrypted seed records, one per wallet group.
// Implementations must be read-after-write consistent within the process.
type SeedRecordRepository interface {
	// HasRecord returns whether a record exists for the given group.
	HasRecord(ctx context.Context, groupID string) (bool, error)
	// GetRecord returns the record of the given group, or ErrNotFound.
	GetRecord(ctx context.Context, groupID string) (*SeedRecord, error)
	// PutRecord creates or replaces the record of its group.
	// Generates a SeedRecordCreated or SeedRecordUpdated event if successfull.
	PutRecord(ctx context.Context, record *SeedRecord) error
	// DeleteRecord deletes the record of the given group. Deleting a missing
	// record is not an error.
	// Generates a SeedRecordDeleted event if a record was actually deleted.
	DeleteRecord(ctx context.Context, groupID string) error
	// ListRecords returns all stored records sorted by creation time.
	ListRecords(ctx context.Context) ([]SeedRecord, error)
	// GetEventChannel returns the channel of SeedRecordEvents.
	GetEventChannel() chan SeedRecordEvent
}
