package config

import "time"

type Auth struct {
	JWTSecret string        `env:"AUTH_JWT_SECRET,required"`
	TokenTTL  time.Duration `env:"AUTH_TOKEN_TTL" envDefault:"1h"`
	Issuer    string        `env:"AUTH_TOKEN_ISSUER" envDefault:"product-catalog"`

	// Users holds static accounts as "username:bcrypt-hash:ROLE1,ROLE2"
	// entries separated by semicolons.
	Users []string `env:"AUTH_USERS,required" envSeparator:";"`
}
