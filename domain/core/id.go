package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	// Falls back to v4 if v7 generation fails
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	RunID      ID
	SampleID   ID
	ChannelKey ID
)

// String conversions for domain IDs
func (id RunID) String() string      { return ID(id).String() }
func (id SampleID) String() string   { return ID(id).String() }
func (id ChannelKey) String() string { return ID(id).String() }

// NewRunID creates a fresh run identifier
func NewRunID() RunID {
	return RunID(NewID())
}

// ParseRunID parses a string into RunID
func ParseRunID(s string) (RunID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("run ID cannot be empty")
	}
	return RunID(s), nil
}

// ParseChannelKey parses a column header into a ChannelKey
func ParseChannelKey(s string) (ChannelKey, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("channel key cannot be empty")
	}
	return ChannelKey(s), nil
}
