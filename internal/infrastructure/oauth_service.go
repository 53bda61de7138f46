package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
)

var (
	ErrIdentityProvider = errors.New("identity provider error")
	ErrUnverifiedEmail  = errors.New("identity provider reports an unverified email")
)

type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	LogoutURL    string
	Scopes       []string
}

// Auth0Config derives the endpoints of an Auth0 tenant from its domain.
func Auth0Config(domain, clientID, clientSecret, redirectURL string) OAuthConfig {
	base := "https://" + strings.TrimSuffix(domain, "/")
	return OAuthConfig{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		AuthURL:      base + "/authorize",
		TokenURL:     base + "/oauth/token",
		UserInfoURL:  base + "/userinfo",
		LogoutURL:    base + "/v2/logout",
		Scopes:       []string{"openid", "profile", "email"},
	}
}

// OAuthService runs the authorization-code flow against an OpenID provider
// and turns a callback code into a verified email address.
type OAuthService struct {
	oauth       *oauth2.Config
	userInfoURL string
	logoutURL   string
}

func NewOAuthService(c OAuthConfig) *OAuthService {
	return &OAuthService{
		oauth: &oauth2.Config{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			RedirectURL:  c.RedirectURL,
			Scopes:       c.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  c.AuthURL,
				TokenURL: c.TokenURL,
			},
		},
		userInfoURL: c.UserInfoURL,
		logoutURL:   c.LogoutURL,
	}
}

func (o *OAuthService) AuthCodeURL(state string) string {
	return o.oauth.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "login"))
}

func (o *OAuthService) ResolveIdentity(ctx context.Context, code string) (string, error) {
	if code == "" {
		return "", fmt.Errorf("%w: missing authorization code", ErrIdentityProvider)
	}

	token, err := o.oauth.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("%w: exchange code: %v", ErrIdentityProvider, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.userInfoURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := o.oauth.Client(ctx, token).Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: userinfo: %v", ErrIdentityProvider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: userinfo status %d", ErrIdentityProvider, resp.StatusCode)
	}

	var info struct {
		Email         string `json:"email"`
		EmailVerified *bool  `json:"email_verified"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&info); err != nil {
		return "", fmt.Errorf("%w: decode userinfo: %v", ErrIdentityProvider, err)
	}

	email := strings.TrimSpace(info.Email)
	if email == "" {
		return "", fmt.Errorf("%w: userinfo has no email", ErrIdentityProvider)
	}
	if info.EmailVerified != nil && !*info.EmailVerified {
		return "", ErrUnverifiedEmail
	}
	return email, nil
}

func (o *OAuthService) LogoutURL(returnTo string) string {
	if o.logoutURL == "" {
		return ""
	}
	q := url.Values{}
	q.Set("client_id", o.oauth.ClientID)
	if returnTo != "" {
		q.Set("returnTo", returnTo)
	}
	return o.logoutURL + "?" + q.Encode()
}
