package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const configFlagName = "config"

var cfgFile string

// addConfigFlag registers --config and arranges for the config file, the
// environment and an optional .env file to be read before the command runs.
// Environment variables use the upper-cased command name as prefix, so
// mqtt.broker-url becomes FLEETCONSOLE_MQTT_BROKER_URL.
func addConfigFlag(basename string, fs *pflag.FlagSet) {
	fs.StringVarP(&cfgFile, configFlagName, "c", cfgFile,
		"Read configuration from the specified `FILE`; supports JSON, TOML, YAML, HCL or Java properties.")

	cobra.OnInitialize(func() {
		// A missing .env file is not an error.
		_ = godotenv.Load()

		viper.AutomaticEnv()
		viper.SetEnvPrefix(strings.ReplaceAll(strings.ToUpper(basename), "-", "_"))
		viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		} else {
			viper.AddConfigPath(".")
			if home, err := os.UserHomeDir(); err == nil {
				viper.AddConfigPath(filepath.Join(home, "."+basename))
			}
			viper.AddConfigPath(filepath.Join("/etc", basename))
			viper.SetConfigName(basename)
		}

		if err := viper.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if cfgFile != "" || !errors.As(err, &notFound) {
				_, _ = fmt.Fprintf(os.Stderr, "Error: failed to read configuration file(%s): %v\n", cfgFile, err)
				os.Exit(1)
			}
		}
	})
}
