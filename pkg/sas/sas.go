// Package sas builds shared access signatures for hub device credentials
// and fabricates throwaway keys for the attack probes.
package sas

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// Token signs resourceURI with the base64 shared access key, valid until
// expiry. The format matches what the hub's MQTT front end expects as the
// connection password.
func Token(resourceURI, key string, expiry time.Time) (string, error) {
	decoded, err := base64.StdEncoding.DecodeString(key)
	if err != nil {
		return "", fmt.Errorf("decode shared access key: %w", err)
	}

	encodedURI := url.QueryEscape(resourceURI)
	toSign := encodedURI + "\n" + strconv.FormatInt(expiry.Unix(), 10)

	mac := hmac.New(sha256.New, decoded)
	mac.Write([]byte(toSign))
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return fmt.Sprintf("SharedAccessSignature sr=%s&sig=%s&se=%d",
		encodedURI, url.QueryEscape(signature), expiry.Unix()), nil
}

// RandomKey returns a base64 key over length random bytes. The probes use
// it to fabricate credentials that cannot collide with a real one.
func RandomKey(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(bytes), nil
}
