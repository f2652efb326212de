package lalamove

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// CanonicalString builds the string that Lalamove expects to be signed:
//
//	{timestamp}\r\n{METHOD}\r\n{path}\r\n\r\n{body}
//
// The empty line between path and body is a reserved slot and must stay empty.
// path includes the query string, if any, but not the scheme or host.
func CanonicalString(method, path string, body []byte, timestampMillis int64) string {
	var b strings.Builder
	b.Grow(len(path) + len(body) + 32)
	b.WriteString(strconv.FormatInt(timestampMillis, 10))
	b.WriteString("\r\n")
	b.WriteString(strings.ToUpper(method))
	b.WriteString("\r\n")
	b.WriteString(path)
	b.WriteString("\r\n\r\n")
	b.Write(body)
	return b.String()
}

// Sign returns the lowercase hex HMAC-SHA256 of the canonical request string
// keyed by the API secret.
func Sign(secret, method, path string, body []byte, timestampMillis int64) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(CanonicalString(method, path, body, timestampMillis)))
	return hex.EncodeToString(mac.Sum(nil))
}

// authorization formats the Authorization header value.
func authorization(apiKey string, timestampMillis int64, signature string) string {
	return "hmac " + apiKey + ":" + strconv.FormatInt(timestampMillis, 10) + ":" + signature
}
