package providers

import (
	"github.com/samber/do/v2"

	"github.com/shelfwise/shelfwise-server/internal/auth"
	"github.com/shelfwise/shelfwise-server/internal/authz"
	"github.com/shelfwise/shelfwise-server/internal/config"
	"github.com/shelfwise/shelfwise-server/internal/logger"
)

// AuthKey wraps the token signing key bytes.
type AuthKey []byte

// ProvideAuthKey decodes the configured key, or loads or generates one
// under the data directory.
func ProvideAuthKey(i do.Injector) (AuthKey, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Auth.TokenKey != "" {
		key, err := auth.DecodeKey(cfg.Auth.TokenKey)
		if err != nil {
			return nil, err
		}
		log.Info("Authentication key loaded from configuration",
			"token_duration", cfg.Auth.TokenDuration)
		return AuthKey(key), nil
	}

	key, err := auth.LoadOrGenerateKey(cfg.Data.Path)
	if err != nil {
		return nil, err
	}

	log.Info("Authentication key loaded",
		"token_duration", cfg.Auth.TokenDuration,
	)

	return AuthKey(key), nil
}

// ProvideTokenService provides the PASETO token service.
func ProvideTokenService(i do.Injector) (*auth.TokenService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	authKey := do.MustInvoke[AuthKey](i)

	return auth.NewTokenService([]byte(authKey), cfg.Auth.TokenDuration)
}

// ProvideEnforcer provides the role policy enforcer.
func ProvideEnforcer(i do.Injector) (*authz.Enforcer, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	enforcer, err := authz.NewEnforcer(cfg.Auth.PolicyPath)
	if err != nil {
		return nil, err
	}

	source := cfg.Auth.PolicyPath
	if source == "" {
		source = "embedded"
	}
	log.Info("Authorization policy loaded", "source", source, "roles", enforcer.Roles())

	return enforcer, nil
}
