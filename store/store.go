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

// Package store implements a persistent library of Intcode programs.
//
// Programs are stored once, zstd compressed, under a content id derived from
// their source text. Any number of names can refer to the same program.
package store

import (
	"bytes"
	"encoding/gob"
	"os"
	"path/filepath"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/zeebo/blake3"
	bolt "go.etcd.io/bbolt"

	"github.com/db47h/intcode/vm"
)

// ErrNotFound is returned when a program does not exist in the library.
var ErrNotFound = errors.New("program not found")

// Bucket names.
var (
	// bucketPrograms stores compressed programs keyed by id.
	bucketPrograms = []byte("programs")
	// bucketNames maps names to program ids.
	bucketNames = []byte("names")
	// bucketMeta stores program metadata keyed by id.
	bucketMeta = []byte("meta")
)

// Config configures a Library.
type Config struct {
	Path     string        // database file
	Timeout  time.Duration // time to wait for the file lock
	ReadOnly bool
	NoSync   bool
}

// DefaultConfig returns the default configuration for a library stored in
// file path.
func DefaultConfig(path string) Config {
	return Config{Path: path, Timeout: 5 * time.Second}
}

// Entry describes a named program.
type Entry struct {
	Name  string
	ID    string
	Size  int // number of cells
	Added time.Time
}

type meta struct {
	Size  int
	Added time.Time
}

// ID returns the content id of p: the base58 encoded BLAKE3 digest of its
// source form.
func ID(p vm.Program) string {
	h := blake3.Sum256([]byte(p.String()))
	return base58.Encode(h[:])
}

// Library is a program library backed by a bbolt database.
type Library struct {
	db *bolt.DB
}

// Open opens or creates the library at cfg.Path.
func Open(cfg Config) (*Library, error) {
	if !cfg.ReadOnly {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
			return nil, errors.Wrap(err, "create directory")
		}
	}
	db, err := bolt.Open(cfg.Path, 0600, &bolt.Options{
		Timeout:  cfg.Timeout,
		NoSync:   cfg.NoSync,
		ReadOnly: cfg.ReadOnly,
	})
	if err != nil {
		return nil, errors.Wrap(err, "open library")
	}
	if !cfg.ReadOnly {
		err = db.Update(func(tx *bolt.Tx) error {
			for _, b := range [][]byte{bucketPrograms, bucketNames, bucketMeta} {
				if _, err := tx.CreateBucketIfNotExists(b); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			db.Close()
			return nil, errors.Wrap(err, "init buckets")
		}
	}
	return &Library{db: db}, nil
}

// Close closes the library.
func (l *Library) Close() error {
	return l.db.Close()
}

func bucket(tx *bolt.Tx, name []byte) (*bolt.Bucket, error) {
	b := tx.Bucket(name)
	if b == nil {
		return nil, errors.Errorf("missing bucket %s", name)
	}
	return b, nil
}

// Put stores p under the given name, replacing any program previously stored
// under that name.
func (l *Library) Put(name string, p vm.Program) (Entry, error) {
	if name == "" {
		return Entry{}, errors.New("empty program name")
	}
	id := ID(p)
	e := Entry{Name: name, ID: id, Size: len(p), Added: time.Now().UTC()}

	var img bytes.Buffer
	if err := vm.Encode(&img, p, true); err != nil {
		return Entry{}, errors.Wrap(err, "encode program")
	}
	var m bytes.Buffer
	if err := gob.NewEncoder(&m).Encode(meta{Size: e.Size, Added: e.Added}); err != nil {
		return Entry{}, errors.Wrap(err, "encode metadata")
	}

	err := l.db.Update(func(tx *bolt.Tx) error {
		progs, err := bucket(tx, bucketPrograms)
		if err != nil {
			return err
		}
		names, err := bucket(tx, bucketNames)
		if err != nil {
			return err
		}
		metas, err := bucket(tx, bucketMeta)
		if err != nil {
			return err
		}
		var old string
		if v := names.Get([]byte(name)); v != nil {
			old = string(v)
		}
		if old == id {
			return nil
		}
		if progs.Get([]byte(id)) == nil {
			if err = progs.Put([]byte(id), img.Bytes()); err != nil {
				return err
			}
			if err = metas.Put([]byte(id), m.Bytes()); err != nil {
				return err
			}
		}
		if err = names.Put([]byte(name), []byte(id)); err != nil {
			return err
		}
		if old != "" {
			return release(tx, old)
		}
		return nil
	})
	return e, errors.Wrapf(err, "put %s", name)
}

// release deletes program id if no name refers to it anymore.
func release(tx *bolt.Tx, id string) error {
	names, err := bucket(tx, bucketNames)
	if err != nil {
		return err
	}
	used := false
	err = names.ForEach(func(_, v []byte) error {
		if string(v) == id {
			used = true
		}
		return nil
	})
	if err != nil || used {
		return err
	}
	if err = tx.Bucket(bucketPrograms).Delete([]byte(id)); err != nil {
		return err
	}
	return tx.Bucket(bucketMeta).Delete([]byte(id))
}

// resolve returns the id of the program referred to by ref, which is either a
// name or an id.
func resolve(tx *bolt.Tx, ref string) (string, error) {
	names, err := bucket(tx, bucketNames)
	if err != nil {
		return "", err
	}
	if id := names.Get([]byte(ref)); id != nil {
		return string(id), nil
	}
	progs, err := bucket(tx, bucketPrograms)
	if err != nil {
		return "", err
	}
	if progs.Get([]byte(ref)) != nil {
		return ref, nil
	}
	return "", ErrNotFound
}

func loadMeta(tx *bolt.Tx, id string) (meta, error) {
	var m meta
	v := tx.Bucket(bucketMeta).Get([]byte(id))
	if v == nil {
		return m, errors.Errorf("missing metadata for %s", id)
	}
	err := gob.NewDecoder(bytes.NewReader(v)).Decode(&m)
	return m, errors.Wrap(err, "decode metadata")
}

// Get returns the program referred to by ref, which can be a name or a
// program id.
func (l *Library) Get(ref string) (vm.Program, Entry, error) {
	var (
		p vm.Program
		e Entry
	)
	err := l.db.View(func(tx *bolt.Tx) error {
		id, err := resolve(tx, ref)
		if err != nil {
			return err
		}
		m, err := loadMeta(tx, id)
		if err != nil {
			return err
		}
		e = Entry{Name: ref, ID: id, Size: m.Size, Added: m.Added}
		if ref == id {
			e.Name = ""
		}
		// bolt values are only valid during the transaction.
		src, err := vm.Decompress(tx.Bucket(bucketPrograms).Get([]byte(id)))
		if err != nil {
			return err
		}
		p, err = vm.ParseBytes(src)
		return err
	})
	if err != nil {
		return nil, Entry{}, errors.Wrapf(err, "get %s", ref)
	}
	return p, e, nil
}

// List returns all named programs, sorted by name.
func (l *Library) List() ([]Entry, error) {
	var list []Entry
	err := l.db.View(func(tx *bolt.Tx) error {
		names, err := bucket(tx, bucketNames)
		if err != nil {
			return err
		}
		return names.ForEach(func(k, v []byte) error {
			m, err := loadMeta(tx, string(v))
			if err != nil {
				return err
			}
			list = append(list, Entry{Name: string(k), ID: string(v), Size: m.Size, Added: m.Added})
			return nil
		})
	})
	return list, errors.Wrap(err, "list")
}

// Delete removes a name from the library. The program itself is deleted once
// no name refers to it.
func (l *Library) Delete(name string) error {
	err := l.db.Update(func(tx *bolt.Tx) error {
		names, err := bucket(tx, bucketNames)
		if err != nil {
			return err
		}
		id := names.Get([]byte(name))
		if id == nil {
			return ErrNotFound
		}
		sid := string(id)
		if err = names.Delete([]byte(name)); err != nil {
			return err
		}
		return release(tx, sid)
	})
	return errors.Wrapf(err, "delete %s", name)
}
