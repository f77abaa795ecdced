package token

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	DefaultRoom = "voice-assistant-room"
	DefaultTTL  = 10 * time.Minute
)

// VideoGrant is the room permission set carried in the "video" claim.
type VideoGrant struct {
	RoomJoin     bool   `json:"roomJoin"`
	Room         string `json:"room"`
	CanPublish   bool   `json:"canPublish"`
	CanSubscribe bool   `json:"canSubscribe"`
}

// Claims is the LiveKit access token payload.
type Claims struct {
	jwt.RegisteredClaims
	Video *VideoGrant `json:"video,omitempty"`
}

// Options selects the room and participant. Zero values fall back to
// DefaultRoom, a random "User_N" identity and DefaultTTL.
type Options struct {
	Room     string
	Identity string
	TTL      time.Duration
}

func (o Options) withDefaults() Options {
	if o.Room == "" {
		o.Room = DefaultRoom
	}
	if o.Identity == "" {
		o.Identity = fmt.Sprintf("User_%d", rand.IntN(1000))
	}
	if o.TTL <= 0 {
		o.TTL = DefaultTTL
	}
	return o
}

// Mint signs a room-join token for opts with the API secret.
func Mint(apiKey, apiSecret string, opts Options, now time.Time) (string, *Claims, error) {
	if apiKey == "" || apiSecret == "" {
		return "", nil, ErrMissingCredentials
	}
	opts = opts.withDefaults()

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    apiKey,
			Subject:   opts.Identity,
			ID:        opts.Identity,
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(opts.TTL)),
		},
		Video: &VideoGrant{
			RoomJoin:     true,
			Room:         opts.Room,
			CanPublish:   true,
			CanSubscribe: true,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(apiSecret))
	if err != nil {
		return "", nil, fmt.Errorf("sign access token: %w", err)
	}
	return signed, claims, nil
}

// Parse verifies raw against apiSecret and returns its claims.
func Parse(raw, apiSecret string, opts ...jwt.ParserOption) (*Claims, error) {
	claims := &Claims{}
	opts = append([]jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}, opts...)
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return []byte(apiSecret), nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	return claims, nil
}
