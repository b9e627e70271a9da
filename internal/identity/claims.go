package identity

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
)

// unsafeDecodeClaims decodes the payload of a JWT without signature
// verification. Only used when no verifier is configured.
func unsafeDecodeClaims(rawIDToken string, dst any) error {
	parts := strings.Split(rawIDToken, ".")
	if len(parts) != 3 {
		return errors.New("malformed id token")
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return errors.New("malformed id token payload")
	}
	return json.Unmarshal(payload, dst)
}
