package inject

import (
	"strings"

	"github.com/spf13/viper"
)

// Settings keys honored by the resolver. These live under the "inject"
// config namespace so hosting applications can share a config file.
const (
	// cfgInferBody enables request-body inference: non-reserved body keys
	// become candidate handler arguments.
	cfgInferBody = "inject.infer_body"

	// cfgImplicitBind allows a bare plan parameter whose name matches a
	// merged-map key to be injected without an explicit Provides marker.
	// Compatibility behavior; switch off to require explicit markers.
	cfgImplicitBind = "inject.implicit_bind"

	cfgLogLevel = "inject.log_level"
)

// initConfig initializes the config looking for config files in the usual
// places. This is where resolver-wide defaults live.
func initConfig() *viper.Viper {
	v := viper.New()

	v.SetConfigType("json")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setConfigDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; env + defaults are enough
			return v
		}
		panic(err)
	}

	return v
}

func setConfigDefaults(v *viper.Viper) {
	v.SetDefault(cfgInferBody, true)
	v.SetDefault(cfgImplicitBind, true)
	v.SetDefault(cfgLogLevel, "info")
}
