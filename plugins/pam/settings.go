// Copyright (c) 2025 The homewired developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pam

import (
	"github.com/homewired/pamauth/host"
	v1 "github.com/homewired/pamauth/plugins/pam/v1"
	"github.com/pkg/errors"
)

// settings contains the plugin settings.
type settings struct {
	// Service is the PAM service name that credentials are verified
	// against.
	Service string

	// RemoteHost is passed through to the OS authentication facility.
	// Optional.
	RemoteHost string
}

func newSettings(hostSettings []host.Setting) (*settings, error) {
	// Default plugin settings
	s := &settings{
		Service:    "login",
		RemoteHost: "",
	}

	// Update the defaults with host provided settings
	err := s.update(hostSettings)
	if err != nil {
		return nil, err
	}

	return s, nil
}

// update updates the plugin settings.
func (s *settings) update(hostSettings []host.Setting) error {
	for _, v := range hostSettings {
		err := s.parseSetting(v)
		if err != nil {
			return errors.Errorf("failed to parse setting %+v: %v", v, err)
		}
		log.Infof("Plugin setting %v updated to %v", v.Name, v.Value)
	}
	return nil
}

// parseSetting parses the plugin setting and updates the settings context.
func (s *settings) parseSetting(v host.Setting) error {
	switch v.Name {
	case v1.SettingService:
		if v.Value == "" {
			return errors.Errorf("service name cannot be empty")
		}
		s.Service = v.Value

	case v1.SettingRemoteHost:
		s.RemoteHost = v.Value

	default:
		return errors.Errorf("setting name not recognized")
	}

	return nil
}
