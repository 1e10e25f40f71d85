package cloud

import (
	"context"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// LoginClient performs the credential handshake: it requests a one-time
// random code, hashes the password with it, and exchanges the result for
// an access token.
type LoginClient struct {
	client *Client
}

// NewLoginClient creates a LoginClient. The underlying Client needs no
// TokenSource; the login endpoints are unauthenticated.
func NewLoginClient(client *Client) *LoginClient {
	return &LoginClient{client: client}
}

// Login exchanges account credentials for an access token.
func (l *LoginClient) Login(ctx context.Context, account, password string) (string, error) {
	var code randomCodeResponse
	err := l.client.postJSON(ctx, "official/user/query/random/code",
		randomCodeRequest{CountryCode: "1", Account: account}, &code)
	if err != nil {
		return "", err
	}
	if code.RandomCode == "" {
		return "", fmt.Errorf("%w: empty random code", ErrAPI)
	}

	var login loginResponse
	err = l.client.postJSON(ctx, "official/user/account/login/new", loginRequest{
		CountryCode: "1",
		Account:     account,
		Password:    encodePassword(password, code.RandomCode),
		Browser:     "Chrome107",
		Equipment:   1,
		LoginMethod: 1,
		Timestamp:   code.Timestamp,
		Language:    "en",
	}, &login)
	if err != nil {
		return "", err
	}
	if login.Token == "" {
		return "", fmt.Errorf("%w: login returned no token", ErrAPI)
	}
	return login.Token, nil
}

// QueryUser returns account details for a display title.
func (l *LoginClient) QueryUser(ctx context.Context, account string) (*QueryUserResponse, error) {
	var resp QueryUserResponse
	err := l.client.postJSON(ctx, "user/query",
		queryUserRequest{CountryCode: "1", Account: account}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// encodePassword applies the vendor scheme: sha256 over the hex md5 of the
// password concatenated with the server-issued random code.
func encodePassword(password, randomCode string) string {
	inner := md5.Sum([]byte(password))
	outer := sha256.Sum256([]byte(hex.EncodeToString(inner[:]) + randomCode))
	return hex.EncodeToString(outer[:])
}
