package utils

import (
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

var fallbackSeq atomic.Uint64

// NewID returns a unique connection identifier.
func NewID() string {
	id, err := uuid.NewRandom()
	if err == nil {
		return id.String()
	}

	// Fallback to timestamp if the random source is unavailable.
	return strconv.FormatInt(time.Now().UnixNano(), 10) + "-" + strconv.FormatUint(fallbackSeq.Add(1), 10)
}
