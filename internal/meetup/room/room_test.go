package room_test

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"soultribe/internal/meetup/room"
)

func TestTokenDeterministic(t *testing.T) {
	gen := room.NewGenerator("https://meet.example.org", "s3cret")
	matchID := uuid.MustParse("3f0b6f62-9d4e-4a3c-8a51-0b6a4a1f9e21")
	at := time.Date(2025, 6, 15, 18, 0, 0, 0, time.UTC)

	first := gen.Token(matchID, at)
	second := gen.Token(matchID, at)
	assert.Equal(t, first, second)

	assert.True(t, strings.HasPrefix(first, "soultribe_"))
	assert.Len(t, strings.TrimPrefix(first, "soultribe_"), 16)
	assert.Equal(t, strings.ToLower(first), first)
}

func TestTokenVariesWithInputs(t *testing.T) {
	gen := room.NewGenerator("https://meet.example.org", "s3cret")
	other := room.NewGenerator("https://meet.example.org", "different")
	matchID := uuid.New()
	at := time.Date(2025, 6, 15, 18, 0, 0, 0, time.UTC)

	assert.NotEqual(t, gen.Token(matchID, at), other.Token(matchID, at))
	assert.NotEqual(t, gen.Token(matchID, at), gen.Token(matchID, at.Add(time.Hour)))
	assert.NotEqual(t, gen.Token(matchID, at), gen.Token(uuid.New(), at))
}

func TestURLJoinsBase(t *testing.T) {
	gen := room.NewGenerator("https://meet.example.org/", "s3cret")
	matchID := uuid.New()
	at := time.Date(2025, 6, 15, 18, 0, 0, 0, time.UTC)

	url := gen.URL(matchID, at)
	assert.Equal(t, "https://meet.example.org/"+gen.Token(matchID, at), url)
	assert.NotContains(t, url, "//soultribe_")
}
