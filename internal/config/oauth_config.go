package config

import (
	"strings"

	"github.com/jrsteele09/creator-relay/oauthmodel"
)

// Local development fallbacks. Production deployments set these via the environment.
const (
	devClientKey    = "sbawfp2mg0wxqesz9n"
	devClientSecret = "local-dev-secret"
)

type OAuthConfig interface {
	GetClientKey() string
	GetClientSecret() string
	GetRedirectURI() string
	GetAPIBaseURL() string
	GetTokenURL() string
	GetQRCodeGetURL() string
	GetQRCodeCheckURL() string
	GetScopes() []string
}

type OAuth struct {
	ClientKey      string   `env:"TIKTOK_CLIENT_KEY" envDefault:"sbawfp2mg0wxqesz9n"`
	ClientSecret   string   `env:"TIKTOK_CLIENT_SECRET"`
	RedirectURI    string   `env:"REDIRECT_URI" envDefault:"http://localhost:3000/callback.html"`
	APIBaseURL     string   `env:"TIKTOK_API_BASE" envDefault:"https://open.tiktokapis.com/v2"`
	TokenURL       string   `env:"TIKTOK_TOKEN_URL" envDefault:"https://open.tiktokapis.com/v2/oauth/token/"`
	QRCodeGetURL   string   `env:"TIKTOK_QRCODE_GET_URL" envDefault:"https://open.tiktokapis.com/v2/oauth/get_qrcode/"`
	QRCodeCheckURL string   `env:"TIKTOK_QRCODE_CHECK_URL" envDefault:"https://open.tiktokapis.com/v2/oauth/check_qrcode/"`
	Scopes         []string `env:"TIKTOK_SCOPES" envSeparator:"," envDefault:"user.info.basic,user.info.profile,user.info.stats,video.list,video.publish,video.upload"`
}

var _ OAuthConfig = OAuth{}

func (o OAuth) GetClientKey() string {
	if o.ClientKey == "" {
		return devClientKey
	}
	return o.ClientKey
}

func (o OAuth) GetClientSecret() string {
	return o.ClientSecret
}

func (o OAuth) GetRedirectURI() string {
	return o.RedirectURI
}

func (o OAuth) GetAPIBaseURL() string {
	return strings.TrimRight(o.APIBaseURL, "/")
}

func (o OAuth) GetTokenURL() string {
	return o.TokenURL
}

func (o OAuth) GetQRCodeGetURL() string {
	return o.QRCodeGetURL
}

func (o OAuth) GetQRCodeCheckURL() string {
	return o.QRCodeCheckURL
}

// GetScopes returns the configured scopes, trimmed and de-duplicated in order.
func (o OAuth) GetScopes() []string {
	return oauthmodel.DedupeScopes(o.Scopes)
}
