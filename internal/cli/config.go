package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create default configuration file",
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current configuration",
	RunE:  runConfigShow,
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	configDir := filepath.Join(home, ".config", "mototrack")
	dataDir := filepath.Join(home, ".local", "share", "mototrack")

	// Create directories
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	configFile := filepath.Join(configDir, "config.toml")

	// Check if config already exists
	if _, err := os.Stat(configFile); err == nil {
		fmt.Printf("Config file already exists at %s\n", configFile)
		fmt.Println("Use 'mototrack config show' to view current configuration")
		return nil
	}

	// Write default config
	if err := os.WriteFile(configFile, []byte(defaultConfig), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	bikesFile := filepath.Join(dataDir, "bikes.txt")
	if _, err := os.Stat(bikesFile); os.IsNotExist(err) {
		if err := os.WriteFile(bikesFile, []byte(defaultBikes), 0644); err != nil {
			return fmt.Errorf("failed to write bikes file: %w", err)
		}
	}

	fmt.Printf("Created config file at %s\n", configFile)
	fmt.Printf("Created bikes file at %s\n", bikesFile)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Printf("  1. Edit %s with the models you are shopping for\n", bikesFile)
	fmt.Println("  2. Run 'mototrack cache refresh' to fetch the WeBuyCars snapshot")
	fmt.Println("  3. Run 'mototrack run' to start tracking")

	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Println("No config file found. Run 'mototrack config init' to create one.")
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}

	fmt.Printf("# Config file: %s\n\n", configPath)
	fmt.Println(string(data))
	return nil
}

const defaultConfig = `# mototrack configuration

# One "Brand Model" term per line, # comments allowed
bikes_file = "~/.local/share/mototrack/bikes.txt"

[database]
path = "~/.local/share/mototrack/mototrack.db"

[cache]
path = "~/.local/share/mototrack/webuycars_cache.json"
max_age_hours = 24  # warn when the snapshot is older than this

# Minimum fuzzy match score per source, in (0.0, 1.0].
# Tune with 'mototrack tune'.
[thresholds]
gumtree = 0.40
autotrader = 0.50
webuycars = 0.4575

[http]
user_agent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0 Safari/537.36"
timeout_seconds = 10
sleep_min_seconds = 2.0  # polite delay between bikes
sleep_max_seconds = 4.0

[sources]
enabled = ["autotrader", "gumtree", "webuycars"]
autotrader_url = "https://www.autotrader.co.za/bikes-for-sale"
gumtree_url = "https://www.gumtree.co.za/s-motorcycles-scooters/v1c9027p1"
webuycars_api_url = "https://website-elastic-api.webuycars.co.za/api/search"
webuycars_page_url = 'https://www.webuycars.co.za/buy-a-car?activeTypeSearch=["Motorbike"]'

[report]
html_path = "~/.local/share/mototrack/docs/index.html"
excel_path = "~/.local/share/mototrack/docs/listings.xlsx"

[logging]
file = "~/.local/share/mototrack/mototrack.log"
level = "info"  # debug, info, warn, error
`

const defaultBikes = `# Models to track, one "Brand Model" per line
Honda CB500X
Kawasaki Ninja 400
# Suzuki DS 250 SX V-STROM
`
