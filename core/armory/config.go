package armory

// Config holds configuration for the remote game-data API.
type Config struct {
	// ClientID is the OAuth client id used for the client-credentials grant.
	ClientID string `mapstructure:"client_id" default:""`
	// ClientSecret is the OAuth client secret.
	ClientSecret string `mapstructure:"client_secret" default:""`
	// TokenURL is the OAuth token endpoint.
	TokenURL string `mapstructure:"token_url" default:"https://oauth.battle.net/token"`
	// BaseURL is the API root; a "%s" placeholder is replaced with the region.
	BaseURL string `mapstructure:"base_url" default:"https://%s.api.blizzard.com"`
	// Locale is sent with every request.
	Locale string `mapstructure:"locale" default:"en_US"`
	// TimeoutSeconds bounds every single HTTP request.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"15"`
	// MaxRetries is the number of retries for throttled or 5xx responses.
	MaxRetries int `mapstructure:"max_retries" default:"3"`
}
