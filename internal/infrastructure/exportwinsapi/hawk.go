package exportwinsapi

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidServerSignature is returned when a response's Server-Authorization does not verify.
var ErrInvalidServerSignature = errors.New("exportwinsapi: invalid server signature")

// Credentials identify this service to the legacy export wins API.
type Credentials struct {
	ID  string
	Key string
}

// artifacts are the values both sides feed into a Hawk MAC.
type artifacts struct {
	ts       int64
	nonce    string
	method   string
	resource string
	host     string
	port     string
	hash     string
	ext      string
}

func newArtifacts(method string, u *url.URL, ts int64, nonce, payloadHash string) artifacts {
	port := u.Port()
	if port == "" {
		port = "80"
		if u.Scheme == "https" {
			port = "443"
		}
	}
	resource := u.EscapedPath()
	if resource == "" {
		resource = "/"
	}
	if u.RawQuery != "" {
		resource += "?" + u.RawQuery
	}
	return artifacts{
		ts:       ts,
		nonce:    nonce,
		method:   strings.ToUpper(method),
		resource: resource,
		host:     strings.ToLower(u.Hostname()),
		port:     port,
		hash:     payloadHash,
	}
}

func (a artifacts) normalized(kind string) string {
	var b strings.Builder
	b.WriteString("hawk.1." + kind + "\n")
	b.WriteString(strconv.FormatInt(a.ts, 10) + "\n")
	b.WriteString(a.nonce + "\n")
	b.WriteString(a.method + "\n")
	b.WriteString(a.resource + "\n")
	b.WriteString(a.host + "\n")
	b.WriteString(a.port + "\n")
	b.WriteString(a.hash + "\n")
	b.WriteString(strings.ReplaceAll(strings.ReplaceAll(a.ext, `\`, `\\`), "\n", `\n`) + "\n")
	return b.String()
}

func mac(key, normalized string) string {
	h := hmac.New(sha256.New, []byte(key))
	h.Write([]byte(normalized))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// payloadHash hashes a body with its content type (parameters stripped).
func payloadHash(contentType string, body []byte) string {
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}
	h := sha256.New()
	h.Write([]byte("hawk.1.payload\n"))
	h.Write([]byte(strings.ToLower(strings.TrimSpace(contentType)) + "\n"))
	h.Write(body)
	h.Write([]byte("\n"))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

func (a artifacts) header(creds Credentials) string {
	return fmt.Sprintf(`Hawk id="%s", ts="%d", nonce="%s", hash="%s", mac="%s"`,
		creds.ID, a.ts, a.nonce, a.hash, mac(creds.Key, a.normalized("header")))
}

var hawkAttr = regexp.MustCompile(`(\w+)="([^"\\]*)"`)

func parseHawkHeader(h string) map[string]string {
	out := map[string]string{}
	h = strings.TrimSpace(h)
	if !strings.HasPrefix(h, "Hawk ") {
		return out
	}
	for _, m := range hawkAttr.FindAllStringSubmatch(h[5:], -1) {
		out[m[1]] = m[2]
	}
	return out
}

// verifyResponse checks the Server-Authorization header against the request artifacts and the body.
func verifyResponse(req artifacts, creds Credentials, serverAuth, contentType string, body []byte) error {
	attrs := parseHawkHeader(serverAuth)
	if attrs["mac"] == "" {
		return ErrInvalidServerSignature
	}
	resp := req
	resp.hash = attrs["hash"]
	resp.ext = attrs["ext"]
	expected := mac(creds.Key, resp.normalized("response"))
	if !hmac.Equal([]byte(expected), []byte(attrs["mac"])) {
		return ErrInvalidServerSignature
	}
	if resp.hash != "" && resp.hash != payloadHash(contentType, body) {
		return ErrInvalidServerSignature
	}
	return nil
}

func randomNonce() (string, error) {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("hawk nonce: %w", err)
	}
	return hex.EncodeToString(b), nil
}
