package config

import "strings"

// Cors lists the browser origins allowed to call the relay. "*" admits any
// origin without credentials.
type Cors struct {
	Origins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
}

var _ CorsConfig = Cors{}

const AnyOrigin = "*"

type AllowedOrigins map[string]struct{}

// Match returns the Access-Control-Allow-Origin value for origin, or "" when
// the origin is refused. Credentials are only allowed for explicitly listed origins.
func (a AllowedOrigins) Match(origin string) (allowOrigin string, credentials bool) {
	if _, ok := a[origin]; ok && origin != AnyOrigin {
		return origin, true
	}
	if _, ok := a[AnyOrigin]; ok {
		return AnyOrigin, false
	}
	return "", false
}

func (c Cors) GetAllowedOrigins() AllowedOrigins {
	origins := make(AllowedOrigins, len(c.Origins))
	for _, o := range c.Origins {
		if o = strings.TrimSpace(o); o != "" {
			origins[o] = struct{}{}
		}
	}
	return origins
}

func (Cors) GetAllowedMethods() string {
	return "GET, POST, OPTIONS"
}

func (Cors) GetAllowedHeaders() string {
	return "Content-Type, Authorization"
}
