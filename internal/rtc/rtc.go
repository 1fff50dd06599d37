package rtc

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrNotConfigured = errors.New("voice tokens are not configured")

// Token is a short-lived credential for joining a voice channel.
type Token struct {
	Token       string `json:"token"`
	AppID       string `json:"appId"`
	ChannelName string `json:"channelName"`
	UID         string `json:"uid"`
	ExpiresAt   int64  `json:"expiresAt"`
}

// Issuer signs voice channel tokens with the provider certificate.
type Issuer struct {
	appID       string
	certificate string
	ttl         time.Duration
}

func NewIssuer(appID, certificate string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Issuer{appID: appID, certificate: certificate, ttl: ttl}
}

func (i *Issuer) Configured() bool {
	return i.appID != "" && i.certificate != ""
}

func (i *Issuer) IssueToken(channelName, uid string) (Token, error) {
	if !i.Configured() {
		return Token{}, ErrNotConfigured
	}
	if channelName == "" {
		return Token{}, errors.New("channelName is required")
	}
	expiresAt := time.Now().Add(i.ttl)
	claims := jwt.MapClaims{
		"app":     i.appID,
		"channel": channelName,
		"uid":     uid,
		"exp":     expiresAt.Unix(),
		"iat":     time.Now().Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(i.certificate))
	if err != nil {
		return Token{}, err
	}
	return Token{
		Token:       signed,
		AppID:       i.appID,
		ChannelName: channelName,
		UID:         uid,
		ExpiresAt:   expiresAt.Unix(),
	}, nil
}
