//go:build unit
// +build unit

package v1

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashRequest_Validate(t *testing.T) {
	tests := []struct {
		name      string
		request   HashRequest
		shouldErr bool
	}{
		{"Default encoding", HashRequest{Data: "abc"}, false},
		{"UTF-8", HashRequest{Data: "abc", Encoding: EncodingUTF8}, false},
		{"Base64", HashRequest{Data: "YWJj", Encoding: EncodingBase64}, false},
		{"Empty data", HashRequest{}, false},
		{"Unknown encoding", HashRequest{Data: "abc", Encoding: "hex"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.request.Validate()
			if tt.shouldErr {
				require.Error(t, err, "expected validation error")
				require.Contains(t, err.Error(), "Field: Encoding, Tag: oneof")
			} else {
				require.NoError(t, err, "expected no validation error")
			}
		})
	}
}
