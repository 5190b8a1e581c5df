// This file is part of intcode - https://github.com/db47h/intcode
//
// Copyright 2016 Denis Bernard <db047h@gmail.com>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cache memoizes results computed by running Intcode programs, such as
// amplifier maxima or network answers.
//
// Keys are built from a program id, a query kind and the query parameters, so
// that a cached value is only reused for the exact same program and query.
package cache

import (
	"encoding/binary"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"

	"github.com/db47h/intcode/vm"
)

// Config configures a Cache.
type Config struct {
	Path     string        // database directory, ignored if InMemory is set
	InMemory bool          // do not persist anything
	TTL      time.Duration // entry lifetime, 0 for no expiry

	// Logger is an optional logger. Set to nil to disable logging.
	Logger badger.Logger
}

// DefaultConfig returns the default configuration for a cache stored in
// directory path.
func DefaultConfig(path string) Config {
	return Config{Path: path}
}

// Cache is a persistent key/value store for computed results.
type Cache struct {
	db  *badger.DB
	ttl time.Duration
}

// Open opens or creates a cache.
func Open(cfg Config) (*Cache, error) {
	path := cfg.Path
	if cfg.InMemory {
		path = ""
	}
	opts := badger.DefaultOptions(path).
		WithInMemory(cfg.InMemory).
		WithLogger(cfg.Logger)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "open cache")
	}
	return &Cache{db: db, ttl: cfg.TTL}, nil
}

// Close closes the cache.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Key returns the cache key for a query of the given kind on program id.
func Key(id, kind string, params ...vm.Cell) []byte {
	var b strings.Builder
	b.WriteString(id)
	b.WriteByte('/')
	b.WriteString(kind)
	b.WriteByte('/')
	b.WriteString(vm.Program(params).String())
	return []byte(b.String())
}

// Get returns the value stored under key. ok is false if there is none.
func (c *Cache) Get(key []byte) (v vm.Cell, ok bool, err error) {
	err = c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if len(val) != 8 {
				return errors.Errorf("bad value size %d", len(val))
			}
			v, ok = vm.Cell(binary.LittleEndian.Uint64(val)), true
			return nil
		})
	})
	if err != nil {
		return 0, false, errors.Wrapf(err, "get %s", key)
	}
	return v, ok, nil
}

// Put stores v under key.
func (c *Cache) Put(key []byte, v vm.Cell) error {
	var val [8]byte
	binary.LittleEndian.PutUint64(val[:], uint64(v))
	err := c.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(key, val[:])
		if c.ttl > 0 {
			e = e.WithTTL(c.ttl)
		}
		return txn.SetEntry(e)
	})
	return errors.Wrapf(err, "put %s", key)
}
