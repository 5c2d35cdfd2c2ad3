// Copyright (c) 2025 The homewired developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package sessions implements a custom session store that uses the
gorilla/sessions and gorilla/securecookie libraries.

The caller uses Get() to initialize or look up a session and Save() to save
the encoded session values to the database and the encoded session ID to
the http response cookie.

Application specific key-value data is saved to the Values field. This data
is never sent to the client. It's saved to the database as an encoded
string and is looked up using the session ID, which travels encoded in the
session cookie.

The key used to encode/decode the session ID and the session values is
provided to the store on initialization. Keys can be rotated by providing
multiple keys on initialization.
*/
package sessions

import (
	"encoding/base32"
	"net/http"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"github.com/pkg/errors"
)

var (
	_ sessions.Store = (*Store)(nil)
)

// Store is a session store backed by a DB.
//
// Store implements the gorilla/sessions Store interface.
type Store struct {
	codecs []securecookie.Codec
	opts   *sessions.Options
	db     DB
}

// NewStore returns a new Store.
//
// Keys are defined in pairs to allow key rotation. The first key in a pair
// is used for authentication and the second for encryption. The encryption
// key can be set to nil or omitted in the last pair, but the authentication
// key is required in all pairs.
//
// It is recommended to use an authentication key with 32 or 64 bytes. The
// encryption key, if set, must be either 16, 24, or 32 bytes to select
// AES-128, AES-192, or AES-256 modes.
func NewStore(db DB, opts *sessions.Options, keyPairs ...[]byte) *Store {
	// Set the maxAge for each securecookie instance
	codecs := securecookie.CodecsFromPairs(keyPairs...)
	for _, codec := range codecs {
		if sc, ok := codec.(*securecookie.SecureCookie); ok {
			sc.MaxAge(opts.MaxAge)
		}
	}

	return &Store{
		codecs: codecs,
		opts:   opts,
		db:     db,
	}
}

// NewOptions returns the default session options with the provided max age
// in seconds.
func NewOptions(sessionMaxAge int) *sessions.Options {
	return &sessions.Options{
		Path:     "/",
		MaxAge:   sessionMaxAge,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
}

// newSessionID returns a new session ID. A session ID is defined as a 32
// byte base32 string with padding. The ID was chosen simply because it's
// what the gorilla/sessions package reference implementation uses.
func newSessionID() string {
	return base32.StdEncoding.EncodeToString(securecookie.GenerateRandomKey(32))
}

// Get returns a session for the given name after adding it to the registry.
//
// A new session is returned if the given session doesn't exist. Access
// IsNew on the session to check if it is an existing session or a new one.
// The new session will not have any session values set and will not have
// been saved to the session store yet.
//
// This function satisfies the gorilla/sessions Store interface.
func (s *Store) Get(r *http.Request, name string) (*sessions.Session, error) {
	log.Tracef("Get %v", name)

	return sessions.GetRegistry(r).Get(s, name)
}

// New returns a session for the given name without adding it to the
// registry.
//
// The difference between New() and Get() is that calling New() twice will
// decode the session data twice, while Get() registers and reuses the same
// decoded session after the first call.
//
// This function satisfies the gorilla/sessions Store interface.
func (s *Store) New(r *http.Request, name string) (*sessions.Session, error) {
	log.Tracef("New %v", name)

	// Setup new session
	session := sessions.NewSession(s, name)
	opts := *s.opts
	session.Options = &opts
	session.IsNew = true
	session.ID = newSessionID()

	// Check if the session cookie already exists
	c, err := r.Cookie(name)
	switch {
	case err == http.ErrNoCookie:
		// Session cookie does not exist. Return the new session.
		return session, nil
	case err != nil:
		return session, err
	}

	// Session cookie already exists. The encoded session ID travels in
	// the cookie. Decode it and use it to check if the session exists
	// in the database.

	// Decode the session ID (overwrites the new session ID)
	err = securecookie.DecodeMulti(name, c.Value, &session.ID, s.codecs...)
	if err != nil {
		return session, err
	}

	es, err := s.db.Get(session.ID)
	switch {
	case errors.Is(err, ErrNotFound):
		// Session not found in the database; no action needed since the
		// new session will be returned.
		return session, nil
	case err != nil:
		return session, err
	}

	// Session found in the database. Decode the database session values
	// into the session being returned.
	session.IsNew = false
	err = securecookie.DecodeMulti(session.Name(), es.Values,
		&session.Values, s.codecs...)
	if err != nil {
		return session, err
	}

	return session, nil
}

// Save saves the session to the database and updates the http response
// cookie with the encoded session ID.
//
// If the Options.MaxAge of the session is <= 0 then the session is deleted
// from the database and the cookie is expired. This enforces proper session
// handling server side instead of trusting the cookie management of the web
// browser.
//
// This function satisfies the gorilla/sessions Store interface.
func (s *Store) Save(r *http.Request, w http.ResponseWriter, session *sessions.Session) error {
	log.Tracef("Save %v", session.ID)

	// Delete the session if the max age is <= 0
	if session.Options.MaxAge <= 0 {
		err := s.db.Del(session.ID)
		if err != nil {
			return err
		}
		http.SetCookie(w,
			sessions.NewCookie(session.Name(), "", session.Options))
		return nil
	}

	// Save the session values to the database
	encodedValues, err := securecookie.EncodeMulti(session.Name(),
		session.Values, s.codecs...)
	if err != nil {
		return err
	}
	err = s.db.Save(session.ID, EncodedSession{
		Values: encodedValues,
	})
	if err != nil {
		return err
	}

	// Update the session cookie with the encoded session ID
	encodedID, err := securecookie.EncodeMulti(session.Name(), session.ID,
		s.codecs...)
	if err != nil {
		return err
	}
	http.SetCookie(w,
		sessions.NewCookie(session.Name(), encodedID, session.Options))

	return nil
}
