package auth

import (
	"strings"

	"github.com/dmitrijs2005/todokeeper/internal/common"
)

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header value.
func BearerToken(header string) (string, error) {
	if !strings.HasPrefix(header, common.BearerPrefix) {
		return "", common.ErrorUnauthorized
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, common.BearerPrefix))
	if token == "" {
		return "", common.ErrorUnauthorized
	}
	return token, nil
}
