// Package query is a per-session cache for backend reads with in-flight
// deduplication, stale-while-revalidate and mutation driven invalidation.
package query

import (
	"fmt"
	"strings"
)

// Status is the state of one cache entry
type Status string

const (
	StatusIdle    Status = "idle"
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Key identifies a cached read: an operation and the parameter values it depends on
type Key struct {
	Op     string
	Params string
}

// NewKey builds a key from an operation name and its parameters
func NewKey(op string, params ...any) Key {
	if len(params) == 0 {
		return Key{Op: op}
	}
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = fmt.Sprint(p)
	}
	return Key{Op: op, Params: strings.Join(parts, "|")}
}

func (k Key) String() string {
	if k.Params == "" {
		return k.Op
	}
	return k.Op + ":" + k.Params
}
