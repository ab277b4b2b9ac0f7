package brightdata

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// envConfig carries environment-sourced defaults, used when the
// corresponding options are not provided.
type envConfig struct {
	APIToken        string `envconfig:"BRIGHTDATA_API_TOKEN"`
	WebUnlockerZone string `envconfig:"WEB_UNLOCKER_ZONE" default:"sdk_unlocker"`
	SERPZone        string `envconfig:"SERP_ZONE" default:"sdk_serp"`
	BrowserZone     string `envconfig:"BROWSER_ZONE" default:"sdk_browser"`
}

func fromEnv() (envConfig, error) {
	var cfg envConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return envConfig{}, fmt.Errorf("loading environment config: %w", err)
	}
	return cfg, nil
}
