// crguide/services/auth/google.go
package auth

import (
	"context"
	"net/http"

	httputils "crguide/crguide/utils/http"
	"crguide/crguide/utils/logging"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const GoogleUserInfoURL = "https://www.googleapis.com/oauth2/v1/userinfo"

// Provider is the OAuth collaborator: code-for-token exchange plus the userinfo call.
type Provider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (string, error)
	FetchProfile(ctx context.Context, accessToken string) (Profile, error)
}

type Google struct {
	conf        *oauth2.Config
	userInfoURL string
	client      *http.Client
}

func NewGoogle(clientID, clientSecret, redirectURL string) *Google {
	return NewGoogleWithConfig(&oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     google.Endpoint,
	}, GoogleUserInfoURL)
}

// NewGoogleWithConfig lets tests point the token and userinfo calls elsewhere.
func NewGoogleWithConfig(conf *oauth2.Config, userInfoURL string) *Google {
	return &Google{conf: conf, userInfoURL: userInfoURL, client: http.DefaultClient}
}

func (g *Google) AuthCodeURL(state string) string {
	return g.conf.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

func (g *Google) Exchange(ctx context.Context, code string) (string, error) {
	defer logging.LogDuration(ctx, "oauth_exchange")()
	tok, err := g.conf.Exchange(ctx, code)
	if err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}

func (g *Google) FetchProfile(ctx context.Context, accessToken string) (Profile, error) {
	defer logging.LogDuration(ctx, "oauth_userinfo")()
	var p Profile
	if err := httputils.GetJSONWithBearer(ctx, g.client, g.userInfoURL, accessToken, &p); err != nil {
		return nil, err
	}
	return p, nil
}
