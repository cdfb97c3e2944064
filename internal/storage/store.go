package storage

import "context"

// Store persists downloaded results. Write returns where the object ended up,
// suitable for showing to the user.
type Store interface {
	Write(ctx context.Context, key string, data []byte, contentType string) (string, error)
}
