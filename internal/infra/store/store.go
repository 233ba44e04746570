// Package store provides the key-value persistence used for game sessions,
// statistics and player preferences.
package store

import "errors"

// Well-known keys.
const (
	KeyGameState    = "songdle-game-state"
	KeyStats        = "songdle-stats"
	KeyTutorialSeen = "songdle-tutorial-seen"
)

// ErrNotFound is returned by Get when a key has no value.
var ErrNotFound = errors.New("key not found")

// KV is a flat string-keyed byte store.
type KV interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Remove(key string) error
}

// Namespaced prefixes every key with "<namespace>:" so many players can
// share one backing store.
type Namespaced struct {
	kv     KV
	prefix string
}

// Namespace wraps kv so that all keys live under ns.
func Namespace(kv KV, ns string) *Namespaced {
	return &Namespaced{kv: kv, prefix: ns + ":"}
}

func (n *Namespaced) Get(key string) ([]byte, error) {
	return n.kv.Get(n.prefix + key)
}

func (n *Namespaced) Set(key string, value []byte) error {
	return n.kv.Set(n.prefix+key, value)
}

func (n *Namespaced) Remove(key string) error {
	return n.kv.Remove(n.prefix + key)
}
