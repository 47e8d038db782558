package cmd

import (
	"errors"
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "job-feed"
)

type Config struct {
	ProfileFile string        `mapstructure:"profile-file"`
	JobsFile    string        `mapstructure:"jobs-file"`
	Board       *BoardConfig  `mapstructure:"board"`
	Filter      *FilterConfig `mapstructure:"filter"`
	Output      *OutputConfig `mapstructure:"output"`
	Serve       *ServeConfig  `mapstructure:"serve"`
}

type BoardConfig struct {
	URL        string `mapstructure:"url"`
	TokenFile  string `mapstructure:"token-file"`
	UserAgent  string `mapstructure:"user-agent"`
	ProfileID  string `mapstructure:"profile-id"`
	MaxRetries int    `mapstructure:"max-retries"`
}

type FilterConfig struct {
	Statuses    []string `mapstructure:"statuses"`
	ExcludeFile string   `mapstructure:"exclude-file"`
	Employers   []string `mapstructure:"employers"`
}

type OutputConfig struct {
	Top      int `mapstructure:"top"`
	MinScore int `mapstructure:"min-score"`
}

type ServeConfig struct {
	Listen string `mapstructure:"listen"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "job-feed ranks job postings against a candidate profile",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("board.token-file", "JOB_FEED_TOKEN_FILE"); err != nil {
		log.Fatalf("binding JOB_FEED_TOKEN_FILE environment variable: %v", err)
	}

	viper.SetDefault("filter.statuses", []string{"active"})
	viper.SetDefault("serve.listen", ":8080")

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is job-feed.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// The version command works without a config.
	if rankCmd.CalledAs() == "" && serveCmd.CalledAs() == "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		// serve can run on defaults alone
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && serveCmd.CalledAs() != "" && errors.As(err, &notFound) {
			return
		}
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config == nil {
		config = &Config{}
	}
	if config.Board == nil {
		config.Board = &BoardConfig{}
	}
	if config.Filter == nil {
		config.Filter = &FilterConfig{}
	}
	if config.Output == nil {
		config.Output = &OutputConfig{}
	}
	if config.Serve == nil {
		config.Serve = &ServeConfig{}
	}

	return config, nil
}
