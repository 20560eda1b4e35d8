package drive

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base32"
	"encoding/base64"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

var (
	stateSalt = []byte("classdrive.core.drive.state")
	b32       = base32.StdEncoding.WithPadding(base32.NoPadding)

	errInvalidState = errors.New("invalid state")
	errStateExpired = errors.New("state expired")
)

// stateSigner makes the OAuth `state` values that bind a consent round-trip to one student.
// Format: base64url(studentID) "." base32(unix issue time) "." base64url(hmac).
type stateSigner struct {
	key [32]byte
	ttl time.Duration
}

func newStateSigner(secret string, ttl time.Duration) stateSigner {
	return stateSigner{
		key: sha256.Sum256(append(append([]byte{}, stateSalt...), secret...)),
		ttl: ttl,
	}
}

func (s stateSigner) sign(studentID string, issuedAt time.Time) string {
	uid := base64.RawURLEncoding.EncodeToString([]byte(studentID))
	ts := b32.EncodeToString([]byte(strconv.FormatInt(issuedAt.Unix(), 10)))
	return uid + "." + ts + "." + s.mac(uid, ts)
}

// verify returns the student ID carried by a valid, unexpired state.
func (s stateSigner) verify(state string, now time.Time) (string, error) {
	parts := strings.Split(state, ".")
	if len(parts) != 3 {
		return "", errInvalidState
	}
	uid, ts, sig := parts[0], parts[1], parts[2]

	// check that the state has not been tampered with
	if subtle.ConstantTimeCompare([]byte(s.mac(uid, ts)), []byte(sig)) == 0 {
		return "", errInvalidState
	}

	idBytes, err := base64.RawURLEncoding.DecodeString(uid)
	if err != nil || len(idBytes) == 0 {
		return "", errInvalidState
	}
	tsBytes, err := b32.DecodeString(ts)
	if err != nil {
		return "", errInvalidState
	}
	issued, err := strconv.ParseInt(string(tsBytes), 10, 64)
	if err != nil {
		return "", errInvalidState
	}

	// check that the timestamp is within limit
	if s.ttl > 0 && now.Sub(time.Unix(issued, 0)) > s.ttl {
		return "", errStateExpired
	}
	return string(idBytes), nil
}

func (s stateSigner) mac(uid, ts string) string {
	h := hmac.New(sha256.New, s.key[:])
	_, _ = h.Write([]byte(uid + "." + ts))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}
