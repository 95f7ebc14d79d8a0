package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/seednet/tgctl/internal/domain"
)

// AppCredentials are the Telegram application identity obtained from
// my.telegram.org. Resolution order: explicit flags, environment,
// <dir>/app.json (written by the connect step).
type AppCredentials struct {
	APIID   int    `json:"apiId"`
	APIHash string `json:"apiHash"`
}

// ResolveAppCredentials layers flag overrides over TELEGRAM_API_ID /
// TELEGRAM_API_HASH over the app.json file in dir.
func ResolveAppCredentials(dir string, flagID int, flagHash string) (AppCredentials, error) {
	v := viper.New()
	v.SetConfigFile(filepath.Join(dir, "app.json"))
	v.SetConfigType("json")
	_ = v.BindEnv("apiId", "TELEGRAM_API_ID")
	_ = v.BindEnv("apiHash", "TELEGRAM_API_HASH")
	_ = v.ReadInConfig() // missing or corrupt file just means env/flags must carry it

	creds := AppCredentials{
		APIID:   v.GetInt("apiId"),
		APIHash: v.GetString("apiHash"),
	}
	if flagID != 0 {
		creds.APIID = flagID
	}
	if flagHash != "" {
		creds.APIHash = flagHash
	}

	if creds.APIID == 0 || creds.APIHash == "" {
		return AppCredentials{}, domain.E(domain.CodeNoAppCredentials,
			"Telegram app credentials not found. Write app.json or set TELEGRAM_API_ID and TELEGRAM_API_HASH.")
	}
	return creds, nil
}

// SyncConfig locates the Seed Network API and the bearer token used by
// the sync commands.
type SyncConfig struct {
	APIBase string
	Token   string
}

const defaultSyncAPIBase = "https://beta.seedclub.com"

// ResolveSyncConfig layers SEED_NETWORK_TOKEN / SEED_NETWORK_API over
// the token file written by the connect step.
func ResolveSyncConfig(baseOverride string) (SyncConfig, error) {
	v := viper.New()
	home, _ := os.UserHomeDir()
	v.SetConfigFile(filepath.Join(home, ".config", "seed-network", "token"))
	v.SetConfigType("json")
	v.SetDefault("apiBase", defaultSyncAPIBase)
	_ = v.BindEnv("token", "SEED_NETWORK_TOKEN")
	_ = v.BindEnv("apiBase", "SEED_NETWORK_API")
	_ = v.ReadInConfig()

	cfg := SyncConfig{
		APIBase: v.GetString("apiBase"),
		Token:   v.GetString("token"),
	}
	if baseOverride != "" {
		cfg.APIBase = baseOverride
	}

	if cfg.Token == "" {
		return SyncConfig{}, domain.E(domain.CodeNotConnected,
			"Not connected to Seed Network. Run the connect step first.")
	}
	return cfg, nil
}
