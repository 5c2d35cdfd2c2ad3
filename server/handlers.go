// Copyright (c) 2025 The homewired developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/csrf"
	"github.com/homewired/pamauth/host"
	pamv1 "github.com/homewired/pamauth/plugins/pam/v1"
	v1 "github.com/homewired/pamauth/server/api/v1"
	"github.com/homewired/pamauth/util"
	"github.com/pkg/errors"
)

// handleNotFound handles all invalid routes and returns a 404 to the
// client.
func handleNotFound(w http.ResponseWriter, r *http.Request) {
	log.Debugf("Invalid route: %v %v %v %v",
		util.RemoteAddr(r), r.Method, r.URL, r.Proto)

	util.RespondWithJSON(w, http.StatusNotFound, nil)
}

// handleVersion is the request handler for the http v1 VersionRoute.
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	log.Tracef("handleVersion")

	// Set the CSRF header. This is the only route
	// that sets the CSRF header.
	w.Header().Set(v1.CSRFTokenHeader, csrf.Token(r))

	respondWithOK(w, v1.VersionReply{
		BuildVersion: s.cfg.BuildVersion,
		APIVersion:   v1.APIVersion,
		PluginID:     s.auth.ID(),
	})
}

// handleLogin is the request handler for the http v1 LoginRoute. The
// request payload is passed through to the plugin's authentication
// handler.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	log.Tracef("handleLogin")

	var l v1.Login
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&l); err != nil {
		respondWithUserError(w, r, v1.ErrCodeInvalidInput, "")
		return
	}

	// Extract the session from the request cookies. A new session is
	// created if the request does not contain one.
	c, session, err := s.extractConn(r)
	if err != nil {
		respondWithInternalError(w, r, err)
		return
	}

	id, err := s.auth.Authenticate(r.Context(), c, []byte(l.Payload))
	if err != nil {
		respondWithAuthError(w, r, err)
		return
	}

	// Bind the identity to the session. If the session was already
	// authenticated then the previous identity has been superseded and
	// the plugin is notified.
	if session.IsNew {
		session.Values[sessionValueCreatedAt] = time.Now().Unix()
	}
	if old := s.bindIdentity(session.ID, id); old != nil {
		s.auth.Disconnected(old, false)
	}

	// Save any updates that were made to the session, including
	// reauthentication data that the plugin asked to be remembered.
	err = s.sessions.Save(r, w, session)
	if err != nil {
		// The login itself succeeded and the server response must
		// reflect this, so session save errors are logged rather than
		// returned to the user.
		log.Errorf("Session save %v: %v", session.ID, err)
	}

	respondWithOK(w, v1.LoginReply{
		UserID:   id.UserID,
		Name:     id.Name,
		Username: id.Username,
	})
}

// handleLogout is the request handler for the http v1 LogoutRoute.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	log.Tracef("handleLogout")

	_, session, err := s.extractConn(r)
	if err != nil {
		respondWithInternalError(w, r, err)
		return
	}

	if id := s.unbindIdentity(session.ID); id != nil {
		s.auth.Disconnected(id, true)
	}

	// Saving the session with a negative MaxAge deletes it.
	session.Options.MaxAge = -1
	err = s.sessions.Save(r, w, session)
	if err != nil {
		respondWithInternalError(w, r, err)
		return
	}

	respondWithOK(w, v1.LogoutReply{})
}

// handleCmd is the request handler for the http v1 CmdRoute. The command
// is passed through to the plugin's user management handler.
func (s *Server) handleCmd(w http.ResponseWriter, r *http.Request) {
	log.Tracef("handleCmd")

	var cmd v1.Cmd
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&cmd); err != nil {
		respondWithUserError(w, r, v1.ErrCodeInvalidInput, "")
		return
	}

	log.Infof("%v Exec %v-%v", util.RemoteAddr(r), cmd.Version, cmd.Name)

	c, _, err := s.extractConn(r)
	if err != nil {
		respondWithInternalError(w, r, err)
		return
	}

	reply, err := s.mgr.Exec(r.Context(), c, host.Cmd{
		Version: cmd.Version,
		Name:    cmd.Name,
		Payload: cmd.Payload,
	})
	if err != nil {
		var ue host.UserErr
		if errors.As(err, &ue) {
			respondWithOK(w, v1.CmdReply{
				Version: cmd.Version,
				Name:    cmd.Name,
				Error: &v1.PluginError{
					Code:    ue.Code,
					Message: ue.Message,
				},
			})
			return
		}
		respondWithInternalError(w, r, err)
		return
	}

	respondWithOK(w, v1.CmdReply{
		Version: cmd.Version,
		Name:    cmd.Name,
		Payload: reply.Payload,
	})
}

// respondWithOK responds to the client request with a 200 http status code
// and the JSON encoded body.
func respondWithOK(w http.ResponseWriter, body interface{}) {
	util.RespondWithJSON(w, http.StatusOK, body)
}

// respondWithAuthError responds to the client request with the appropriate
// error reply for a failed authentication attempt. Recoverable validation
// errors are passed through in the plugin's field envelope so that the UI
// can highlight the offending fields.
func respondWithAuthError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ve pamv1.ValidationErr
		ue host.UserErr
	)
	switch {
	case errors.As(err, &ve):
		log.Infof("%v Login validation error: %v",
			util.RemoteAddr(r), ve)

		util.RespondWithJSON(w, http.StatusBadRequest,
			v1.ValidationError{
				Username:   ve.Username,
				Password:   ve.Password,
				Validation: true,
			})

	case errors.As(err, &ue):
		log.Infof("%v Login user error: %v %v",
			util.RemoteAddr(r), ue.Code, ue.Message)

		util.RespondWithJSON(w, http.StatusBadRequest,
			v1.PluginError{
				Code:    ue.Code,
				Message: ue.Message,
			})

	default:
		respondWithInternalError(w, r, err)
	}
}

// respondWithUserError responds to the client request with a 400 http
// status code and a JSON encoded v1 UserError in the response body.
func respondWithUserError(w http.ResponseWriter, r *http.Request, errCode v1.ErrCode, errContext string) {
	m := fmt.Sprintf("%v User error: %v %v",
		util.RemoteAddr(r), errCode, v1.ErrCodes[errCode])
	if errContext != "" {
		m += fmt.Sprintf("- %v", errContext)
	}
	log.Infof(m)

	util.RespondWithJSON(w, http.StatusBadRequest,
		v1.UserError{
			ErrorCode:    errCode,
			ErrorContext: errContext,
		})
}

// respondWithInternalError responds to the client request with a 500 http
// status code and a JSON encoded v1 InternalError in the response body.
func respondWithInternalError(w http.ResponseWriter, r *http.Request, err error) {
	// Check if the client dropped the connection. There
	// is no need to send a response if the client dropped
	// the connection.
	if err := r.Context().Err(); err == context.Canceled {
		log.Infof("%v %v %v %v client aborted connection",
			util.RemoteAddr(r), r.Method, r.URL, r.Proto)
		return
	}

	// Log an internal server error
	t := time.Now().Unix()
	e := fmt.Sprintf("%v %v %v %v Internal error %v: %v",
		util.RemoteAddr(r), r.Method, r.URL, r.Proto, t, err)

	// If this is a pkg/errors error then we can pull the
	// stack trace out of the error, otherwise, we use the
	// stack trace of this function invocation.
	stack, ok := util.StackTrace(err)
	if ok {
		e += fmt.Sprintf("\nInternal error stacktrace (NOT A PANIC): %v",
			stack)
	}

	log.Error(e)

	util.RespondWithJSON(w, http.StatusInternalServerError,
		v1.InternalError{
			ErrorCode: t,
		})
}
