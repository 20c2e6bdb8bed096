package accounts

// SimpleConfig is a plain struct implementation of Config for callers that
// do not bring their own configuration layer.
type SimpleConfig struct {
	SigningKey             string
	SigningMethod          string
	ContextKey             string
	AccessTokenExpiration  int
	RefreshTokenExpiration int
	TokenLookup            string
	AuthScheme             string
	Issuer                 string
	Audience               []string
}

var _ Config = (*SimpleConfig)(nil)

// NewSimpleConfig returns a config with the package defaults: HS256 tokens
// read from the Authorization header, 1 hour access tokens, 7 day refresh
// tokens.
func NewSimpleConfig(signingKey string) *SimpleConfig {
	return &SimpleConfig{
		SigningKey:             signingKey,
		SigningMethod:          "HS256",
		ContextKey:             "user",
		AccessTokenExpiration:  1,
		RefreshTokenExpiration: 24 * 7,
		TokenLookup:            "header:Authorization",
		AuthScheme:             "Bearer",
	}
}

func (c *SimpleConfig) GetSigningKey() string    { return c.SigningKey }
func (c *SimpleConfig) GetSigningMethod() string { return c.SigningMethod }
func (c *SimpleConfig) GetContextKey() string    { return c.ContextKey }

func (c *SimpleConfig) GetAccessTokenExpiration() int { return c.AccessTokenExpiration }

func (c *SimpleConfig) GetRefreshTokenExpiration() int { return c.RefreshTokenExpiration }

func (c *SimpleConfig) GetTokenLookup() string { return c.TokenLookup }
func (c *SimpleConfig) GetAuthScheme() string  { return c.AuthScheme }
func (c *SimpleConfig) GetIssuer() string      { return c.Issuer }
func (c *SimpleConfig) GetAudience() []string  { return c.Audience }
