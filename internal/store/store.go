// Package store is the key-value persistence layer behind the quota counter,
// the per-target progress markers and the monitored-target set.
package store

import (
	"encoding/json"
	"fmt"
)

// Store defines the interface for durable key-value persistence
type Store interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Delete(key string) error
}

// Well-known key prefixes. The layout is logical, not file-format specific.
const (
	KeyQuotaPrefix         = "quota:"         // quota:{YYYY-MM-DD} -> QuotaState
	KeyLastProcessedPrefix = "lastProcessed:" // lastProcessed:{url} -> RFC3339 timestamp
	KeyPinned              = "pinned"         // ordered pinned-target list
	KeyTargets             = "targets"        // monitored-target set
)

// GetJSON reads and unmarshals a stored value into v.
func GetJSON(s Store, key string, v interface{}) (bool, error) {
	data, ok, err := s.Get(key)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return true, nil
}

// SetJSON marshals v and stores it under key.
func SetJSON(s Store, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return s.Set(key, data)
}
