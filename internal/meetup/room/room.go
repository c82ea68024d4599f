// Package room derives stable video-room URLs for confirmed meetups. The
// token is a keyed digest of the match and the confirmed time, so the same
// confirmation always lands in the same room without storing anything.
package room

import (
	"crypto/sha256"
	"encoding/base32"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"soultribe/internal/tzengine"
)

const tokenLength = 16

// Generator derives room tokens and URLs.
type Generator struct {
	baseURL string
	secret  string
}

// NewGenerator creates a room generator. baseURL is the meeting host root.
func NewGenerator(baseURL, secret string) *Generator {
	return &Generator{baseURL: strings.TrimRight(baseURL, "/"), secret: secret}
}

// Token derives the room name for a match confirmed at the given instant.
func (g *Generator) Token(matchID uuid.UUID, confirmedUTC time.Time) string {
	payload := fmt.Sprintf("%s|%s|%s", matchID, tzengine.FormatUTCInstant(confirmedUTC), g.secret)
	sum := sha256.Sum256([]byte(payload))
	encoded := strings.ToLower(base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(sum[:]))
	return "soultribe_" + encoded[:tokenLength]
}

// URL returns the full joinable room URL.
func (g *Generator) URL(matchID uuid.UUID, confirmedUTC time.Time) string {
	return g.baseURL + "/" + g.Token(matchID, confirmedUTC)
}
