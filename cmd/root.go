package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"parley/internal/config"
	"parley/internal/pkg/logger"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "parley",
	Short: "Parley - streaming chat service",
	Long: `Parley is a chat backend that keeps per-user conversation history
and relays language-model replies to the browser as they are generated.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ./configs/config.yaml)")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.parley")
	}

	// 环境变量: PARLEY_AI_API_KEY -> ai.api_key
	viper.SetEnvPrefix("PARLEY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			fmt.Fprintln(os.Stderr, "No config file found, using defaults and environment variables")
		} else {
			fmt.Fprintf(os.Stderr, "Failed to read config: %v\n", err)
			os.Exit(1)
		}
	}

	cfg = &config.Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to unmarshal config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(&cfg.Log); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init logger: %v\n", err)
		os.Exit(1)
	}

	log.Debug().Str("config_file", viper.ConfigFileUsed()).Msg("configuration loaded")
}

func setDefaults() {
	// Server
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "release")
	viper.SetDefault("server.read_timeout", "30s")
	// 流式响应可能持续数分钟，写超时需覆盖 chat.stream_timeout
	viper.SetDefault("server.write_timeout", "10m")
	viper.SetDefault("server.cors_origins", []string{"*"})

	// AI
	viper.SetDefault("ai.provider", "openai")
	viper.SetDefault("ai.model", "gpt-4.1")
	viper.SetDefault("ai.options.temperature", 0.7)
	viper.SetDefault("ai.options.max_tokens", 4096)
	viper.SetDefault("ai.options.top_p", 1.0)

	// Log
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "console")
	viper.SetDefault("log.output", "stdout")
	viper.SetDefault("log.time_format", "RFC3339")

	// Store
	viper.SetDefault("store.driver", "mongo")
	viper.SetDefault("mongo.uri", "mongodb://localhost:27017")
	viper.SetDefault("mongo.database", "parley")
	viper.SetDefault("mongo.max_pool_size", 100)
	viper.SetDefault("mongo.min_pool_size", 10)
	viper.SetDefault("sqlite.path", "./data/parley.db")

	// Redis (addr 为空时使用进程内锁)
	viper.SetDefault("redis.addr", "")
	viper.SetDefault("redis.db", 0)

	// Auth
	viper.SetDefault("auth.access_token_expiry", "24h")
	viper.SetDefault("auth.cookie_name", "parley_session")

	// Chat
	viper.SetDefault("chat.stream_timeout", "5m")
	viper.SetDefault("chat.turn_lock", true)
	viper.SetDefault("chat.rate_limit.per_minute", 20)
	viper.SetDefault("chat.rate_limit.burst", 5)
}

// GetConfig returns the global configuration
func GetConfig() *config.Config {
	return cfg
}
