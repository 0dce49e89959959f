package store

import (
	"context"
	"fmt"
)

// Unavailable stands in for a backend that could not be opened. Every call
// fails with the construction error.
type Unavailable struct {
	Err error
}

var (
	_ KV     = Unavailable{}
	_ Pinger = Unavailable{}
)

func (u Unavailable) Get(context.Context, string) ([]byte, error) { return nil, u.err() }

func (u Unavailable) Set(context.Context, string, []byte) error { return u.err() }

func (u Unavailable) Ping(context.Context) error { return u.err() }

func (u Unavailable) err() error {
	return fmt.Errorf("backend unavailable: %w", u.Err)
}
