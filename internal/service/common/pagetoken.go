// Package common has small helpers shared by handlers and services.
package common

import (
	"encoding/base64"
	"fmt"

	apperrors "github.com/acme/coldcall-agent/pkg/errors"
)

// EncodePageToken turns a storage paging state into an opaque URL-safe token. An empty state yields "".
func EncodePageToken(state []byte) string {
	if len(state) == 0 {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(state)
}

// DecodePageToken reverses EncodePageToken.
func DecodePageToken(token string) ([]byte, error) {
	if token == "" {
		return nil, nil
	}
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed page token", apperrors.ErrValidation)
	}
	return data, nil
}
