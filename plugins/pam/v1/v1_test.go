// Copyright (c) 2025 The homewired developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package v1

import (
	"encoding/json"
	"testing"

	"github.com/homewired/pamauth/unittest"
)

func TestMaps(t *testing.T) {
	err := unittest.TestGenericConstMap(ErrCodes, uint64(ErrCodeLast))
	if err != nil {
		t.Fatalf("ErrCodes: %v", err)
	}
}

func TestValidationErrMarshal(t *testing.T) {
	var tests = []struct {
		name string
		err  ValidationErr
		want string
	}{
		{
			"username missing",
			ValidationErr{
				Username: ErrMsgUsernameMissing,
			},
			`{"username":"Enter your username.","validation":true}`,
		},
		{
			"password missing",
			ValidationErr{
				Password: ErrMsgPasswordMissing,
			},
			`{"password":"Enter your password.","validation":true}`,
		},
		{
			"both missing",
			ValidationErr{
				Username: ErrMsgUsernameMissing,
				Password: ErrMsgPasswordMissing,
			},
			`{"password":"Enter your password.",` +
				`"username":"Enter your username.","validation":true}`,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b, err := json.Marshal(tc.err)
			if err != nil {
				t.Fatal(err)
			}
			diff := unittest.DeepEqual(string(b), tc.want)
			if diff != "" {
				t.Error(diff)
			}
		})
	}
}
