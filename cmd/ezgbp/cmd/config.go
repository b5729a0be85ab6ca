package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/theezgbp/ezgbp-desktop/internal/config"
)

var (
	configInitLocal bool
	configInitForce bool
)

// configCmd displays or manages configuration.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Display and manage configuration",
	Long: `Display and manage ezgbp configuration.

Without subcommands, shows the current effective configuration.

Examples:
  ezgbp config              # Show current config
  ezgbp config init         # Create config file with defaults
  ezgbp config path         # Show config file location
  ezgbp config get <key>    # Get a config value
  ezgbp config set <key> <value>  # Set a config value`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		data, err := cfg.YAML()
		if err != nil {
			return err
		}
		if cfg.File != "" {
			fmt.Printf("# %s\n", cfg.File)
		} else {
			fmt.Println("# built-in defaults")
		}
		fmt.Print(string(data))
		return nil
	},
}

// configInitCmd creates a config file with defaults.
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a config file with default settings",
	Long: `Create a config file with default settings.

By default, creates ~/.ezgbp/config.yaml.
Use --local to create ./config.yaml in the current directory.

Examples:
  ezgbp config init          # Create ~/.ezgbp/config.yaml
  ezgbp config init --local  # Create ./config.yaml
  ezgbp config init --force  # Overwrite existing file`,
	RunE: runConfigInit,
}

// configPathCmd shows config file location.
var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show config file location",
	RunE:  runConfigPath,
}

// configGetCmd gets a config value.
var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Long: `Get a configuration value by key.

Keys use dot notation to access nested values.

Examples:
  ezgbp config get app.start_url
  ezgbp config get updater.interval
  ezgbp config get navigation.trusted_domains`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigGet,
}

// configSetCmd sets a config value.
var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value by key.

Creates the config file if it doesn't exist. The change is rejected if the
resulting configuration does not validate.

Examples:
  ezgbp config set app.start_url http://localhost:3000
  ezgbp config set updater.notify_errors true
  ezgbp config set logging.level debug`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)

	configInitCmd.Flags().BoolVar(&configInitLocal, "local", false, "create config in current directory instead of ~/.ezgbp/")
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite existing config file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := "config.yaml"
	if !configInitLocal {
		p, err := config.DefaultPath()
		if err != nil {
			return fmt.Errorf("failed to locate config directory: %w", err)
		}
		configPath = p
	}

	if err := config.WriteDefault(configPath, configInitForce); err != nil {
		if !configInitForce && strings.Contains(err.Error(), "already exists") {
			return fmt.Errorf("%w\nUse --force to overwrite", err)
		}
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Printf("Created %s\n", configPath)
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	configDir, err := config.GetConfigDir()
	if err != nil {
		return fmt.Errorf("failed to get config dir: %w", err)
	}

	fmt.Println("Config search paths (in order):")
	for i, loc := range configSearchPaths(configDir) {
		exists := "not found"
		if _, err := os.Stat(loc); err == nil {
			exists = "exists"
		}
		fmt.Printf("  %d. %s (%s)\n", i+1, loc, exists)
	}

	fmt.Printf("\nConfig directory: %s\n", configDir)
	return nil
}

func configSearchPaths(configDir string) []string {
	paths := []string{"./config.yaml", filepath.Join(configDir, "config.yaml")}
	if cfgFile != "" {
		paths = append([]string{cfgFile}, paths...)
	}
	return paths
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	value, err := getConfigValue(cfg, args[0])
	if err != nil {
		return err
	}

	switch v := value.(type) {
	case map[string]interface{}, []interface{}:
		out, err := yaml.Marshal(v)
		if err != nil {
			return err
		}
		fmt.Print(string(out))
	default:
		fmt.Println(v)
	}
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	configPath := cfgFile
	if configPath == "" {
		if _, err := config.EnsureConfigDir(); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
		p, err := config.DefaultPath()
		if err != nil {
			return err
		}
		configPath = p
	}

	var data map[string]interface{}
	previous, readErr := os.ReadFile(configPath)
	if readErr == nil {
		if err := yaml.Unmarshal(previous, &data); err != nil {
			return fmt.Errorf("failed to parse existing config: %w", err)
		}
	}
	if data == nil {
		data = make(map[string]interface{})
	}

	if err := setNestedValue(data, key, value); err != nil {
		return err
	}

	content, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}
	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	if _, err := config.Load(configPath); err != nil {
		if readErr == nil {
			_ = os.WriteFile(configPath, previous, 0644)
		} else {
			_ = os.Remove(configPath)
		}
		return fmt.Errorf("rejected %s: %w", key, err)
	}

	fmt.Printf("Set %s = %s in %s\n", key, value, configPath)
	return nil
}

// getConfigValue looks key up in the YAML rendering of cfg, so every field
// is reachable under the name it has in the config file.
func getConfigValue(cfg *config.Config, key string) (interface{}, error) {
	raw, err := cfg.YAML()
	if err != nil {
		return nil, err
	}
	var tree map[string]interface{}
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return nil, err
	}

	var current interface{} = tree
	for _, part := range strings.Split(key, ".") {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("unknown config key: %s", key)
		}
		if current, ok = m[part]; !ok {
			return nil, fmt.Errorf("unknown config key: %s", key)
		}
	}
	return current, nil
}

func setNestedValue(data map[string]interface{}, key string, value string) error {
	parts := strings.Split(key, ".")

	current := data
	for i := 0; i < len(parts)-1; i++ {
		if _, ok := current[parts[i]]; !ok {
			current[parts[i]] = make(map[string]interface{})
		}
		nested, ok := current[parts[i]].(map[string]interface{})
		if !ok {
			return fmt.Errorf("cannot set nested value: %s is not a map", parts[i])
		}
		current = nested
	}

	current[parts[len(parts)-1]] = parseValue(value)
	return nil
}

// parseValue keeps booleans and integers typed; durations and everything
// else stay strings.
func parseValue(value string) interface{} {
	if b, err := strconv.ParseBool(value); err == nil && (value == "true" || value == "false") {
		return b
	}
	if i, err := strconv.Atoi(value); err == nil {
		return i
	}
	if strings.Contains(value, ",") {
		var list []interface{}
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				list = append(list, item)
			}
		}
		return list
	}
	return value
}
