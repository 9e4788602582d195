package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/newsguard/internal/logging"
	"github.com/ppiankov/newsguard/internal/model"
	"github.com/ppiankov/newsguard/internal/ocr/tesseract"
)

const version = "0.1.0"

var (
	cfgFile   string
	verbose   bool
	logLevel  string
	logFormat string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "newsguard",
	Short: "Newsguard - fake news detection for text, newspaper images and articles",
	Long: `Newsguard classifies news as FAKE or REAL.

It accepts plain text, photographs or scans of newspaper pages (read with
OCR), and article URLs. Text from recognizable newspaper pages is reduced to
its news content and enriched with the detected outlet and headline before
classification.

A verdict is a model's estimate, not a fact check.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "newsguard v%s\n", version)
		if verbose {
			fmt.Fprintf(cmd.OutOrStdout(), "tesseract %s\n", tesseract.Version())
		}
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.newsguard/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (text, json)")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads .env, the config file and NEWSGUARD_* variables
func initConfig() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Error loading .env: %v\n", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(filepath.Join(home, ".newsguard"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// NEWSGUARD_CLASSIFIER_API_KEY overrides classifier.api_key
	viper.SetEnvPrefix("NEWSGUARD")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	if err := registerDefaults(viper.GetViper(), model.DefaultConfig()); err != nil {
		fmt.Fprintf(os.Stderr, "Error registering defaults: %v\n", err)
	}

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// registerDefaults makes every config key known to v so that environment
// variables apply to keys absent from the config file.
func registerDefaults(v *viper.Viper, cfg *model.Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return err
	}
	setDefaults(v, "", tree)

	// omitted from the YAML when empty
	for _, key := range []string{"classifier.api_key", "http.http_proxy", "http.https_proxy", "http.no_proxy"} {
		if err := v.BindEnv(key); err != nil {
			return err
		}
	}
	return nil
}

func setDefaults(v *viper.Viper, prefix string, tree map[string]any) {
	for key, value := range tree {
		if prefix != "" {
			key = prefix + "." + key
		}
		if sub, ok := value.(map[string]any); ok {
			setDefaults(v, key, sub)
			continue
		}
		v.SetDefault(key, value)
	}
}

// loadConfig returns the effective configuration
func loadConfig() (*model.Config, error) {
	return decodeConfig(viper.GetViper())
}

func decodeConfig(v *viper.Viper) (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	applyProviderEnv(cfg)
	return cfg, nil
}

// applyProviderEnv fills credentials from the providers' usual variables
func applyProviderEnv(cfg *model.Config) {
	switch strings.ToLower(cfg.Classifier.Provider) {
	case "openai":
		if cfg.Classifier.APIKey == "" {
			cfg.Classifier.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	case "ollama":
		if cfg.Classifier.Endpoint == "" {
			cfg.Classifier.Endpoint = os.Getenv("OLLAMA_BASE_URL")
		}
	}
}

func newLogger(cfg *model.Config) *slog.Logger {
	level := cfg.Logging.Level
	if verbose && !strings.EqualFold(level, "debug") {
		level = "debug"
	}
	return logging.New(level, cfg.Logging.Format, os.Stderr)
}
