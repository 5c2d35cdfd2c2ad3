// Copyright (c) 2025 The homewired developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package localdb

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"

	"github.com/homewired/pamauth/store"
	"github.com/homewired/pamauth/util"
	"github.com/marcopeereboom/sbox"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	ldbutil "github.com/syndtr/goleveldb/leveldb/util"
)

const (
	// storeDirname is the directory name that the leveldb database is
	// saved to, relative to the data dir.
	storeDirname = "store"

	// encryptionKeyFilename is the filename of the encryption key that is
	// created in the app dir.
	encryptionKeyFilename = "leveldb-sbox.key"
)

var (
	_ store.KV = (*localdb)(nil)
)

// localdb implements the store KV interface using leveldb.
//
// User records are encrypted with a secretbox key before being saved to
// disk. A random key is created on first startup and saved to the app dir.
// All exported calls are locked against concurrent access; this store is
// intended for single-host installations, not for performance.
type localdb struct {
	sync.Mutex
	db       *leveldb.DB
	key      *[32]byte
	shutdown bool
}

// encrypt encrypts and returns the provided blob.
func (l *localdb) encrypt(data []byte) ([]byte, error) {
	return sbox.Encrypt(0, l.key, data)
}

// decrypt decrypts the provided blob. It unpacks the sbox header and returns
// the unencrypted data if successful.
func (l *localdb) decrypt(data []byte) ([]byte, error) {
	b, _, err := sbox.Decrypt(l.key, data)
	return b, err
}

// isEncrypted returns whether the provided blob has been prefixed with an
// sbox header, indicating that it is an encrypted blob.
func isEncrypted(b []byte) bool {
	return bytes.HasPrefix(b, []byte("sbox"))
}

// Get returns the value for a key.
//
// This function satisfies the store KV interface.
func (l *localdb) Get(key string) ([]byte, error) {
	log.Tracef("Get: %v", key)

	l.Lock()
	defer l.Unlock()
	if l.shutdown {
		return nil, store.ErrShutdown
	}

	b, err := l.db.Get([]byte(key), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, errors.WithStack(err)
	}
	if isEncrypted(b) {
		b, err = l.decrypt(b)
		if err != nil {
			return nil, err
		}
	}

	return b, nil
}

// Put saves a key-value pair to the store.
//
// This function satisfies the store KV interface.
func (l *localdb) Put(key string, value []byte) error {
	log.Tracef("Put: %v", key)

	l.Lock()
	defer l.Unlock()
	if l.shutdown {
		return store.ErrShutdown
	}

	e, err := l.encrypt(value)
	if err != nil {
		return err
	}
	err = l.db.Put([]byte(key), e, nil)
	if err != nil {
		return errors.WithStack(err)
	}

	log.Debugf("Saved blob to store: %v", key)

	return nil
}

// Del deletes a key from the store.
//
// This function satisfies the store KV interface.
func (l *localdb) Del(key string) error {
	log.Tracef("Del: %v", key)

	l.Lock()
	defer l.Unlock()
	if l.shutdown {
		return store.ErrShutdown
	}

	err := l.db.Delete([]byte(key), nil)
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// Keys returns all keys in the store in leveldb iteration order, which is
// lexicographic and stable.
//
// This function satisfies the store KV interface.
func (l *localdb) Keys() ([]string, error) {
	log.Tracef("Keys")

	l.Lock()
	defer l.Unlock()
	if l.shutdown {
		return nil, store.ErrShutdown
	}

	keys := make([]string, 0, 64)
	iter := l.db.NewIterator(&ldbutil.Range{}, nil)
	for iter.Next() {
		keys = append(keys, string(iter.Key()))
	}
	iter.Release()
	err := iter.Error()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return keys, nil
}

// Close shuts down the store connection and zeroes the encryption key.
//
// This function satisfies the store KV interface.
func (l *localdb) Close() error {
	log.Tracef("Close")

	l.Lock()
	defer l.Unlock()

	// Prevent any more localdb calls
	l.shutdown = true

	// Zero the encryption key
	util.Zero(l.key[:])

	return l.db.Close()
}

// New returns a new localdb store. The encryption key is loaded from the
// app dir, or created if one does not exist yet.
func New(appDir, dataDir string) (*localdb, error) {
	switch {
	case appDir == "":
		return nil, errors.Errorf("app dir not provided")
	case dataDir == "":
		return nil, errors.Errorf("data dir not provided")
	}

	// Setup leveldb data dir
	fp := filepath.Join(dataDir, storeDirname)
	err := os.MkdirAll(fp, 0700)
	if err != nil {
		return nil, err
	}

	// Open database
	db, err := leveldb.OpenFile(fp, nil)
	if err != nil {
		return nil, err
	}

	// Load encryption key
	keyFile := filepath.Join(appDir, encryptionKeyFilename)
	key, err := util.LoadEncryptionKey(log, keyFile)
	if err != nil {
		return nil, err
	}

	return &localdb{
		db:  db,
		key: key,
	}, nil
}
