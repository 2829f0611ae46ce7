package storage

import "context"

// Backend is the durable key-value primitive the store is built on.
// Values are opaque strings; found is false for keys never written.
type Backend interface {
	Read(ctx context.Context, key string) (value string, found bool, err error)
	Write(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}
