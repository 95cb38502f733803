package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cwester/era5fetch/internal/grid"
)

// DefaultEndpoint is the public CDS API endpoint.
const DefaultEndpoint = "https://cds.climate.copernicus.eu/api/v2"

// ErrSettingNotFound indicates a setting the control file does not define.
var ErrSettingNotFound = errors.New("config: setting not found")

// Config carries everything a download run needs. It is assembled from
// the control file and passed explicitly into components.
type Config struct {
	// ControlFile is the absolute path of the file the config was
	// loaded from, kept for provenance.
	ControlFile string

	RootPath    string
	DomainName  string
	ForcingPath string

	StartYear int
	EndYear   int
	Box       grid.Box

	// Variables is the CDS variable list. Nil selects the default
	// surface forcing set.
	Variables []string

	Retry       RetryConfig
	Credentials Credentials
}

// RetryConfig defines retry behavior for retrieval calls.
type RetryConfig struct {
	Attempts int
}

// Credentials identify the CDS account.
type Credentials struct {
	URL string
	Key string
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Retry:       RetryConfig{Attempts: 10},
		Credentials: Credentials{URL: DefaultEndpoint},
	}
}

// ReadSetting returns the value of the named setting in the control file
// at path. The first line that contains the name and does not start with
// '#' wins: the value is the text after the first '|', truncated at the
// first '#', with surrounding whitespace trimmed.
func ReadSetting(path, name string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open control file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "#") || !strings.Contains(line, name) {
			continue
		}
		_, rest, found := strings.Cut(line, "|")
		if !found {
			continue
		}
		value, _, _ := strings.Cut(rest, "#")
		return strings.TrimSpace(value), nil
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read control file: %w", err)
	}
	return "", fmt.Errorf("%w: %s", ErrSettingNotFound, name)
}

// Load reads the control file at path and assembles a Config. Optional
// settings fall back to defaults; required ones surface
// ErrSettingNotFound.
func Load(path string) (Config, error) {
	cfg := Default()

	abs, err := filepath.Abs(path)
	if err != nil {
		return Config{}, fmt.Errorf("resolve control file path: %w", err)
	}
	cfg.ControlFile = abs

	forcing, err := ReadSetting(path, "forcing_raw_path")
	if err != nil {
		return Config{}, err
	}
	if forcing == "default" {
		root, err := ReadSetting(path, "root_path")
		if err != nil {
			return Config{}, fmt.Errorf("resolve default forcing path: %w", err)
		}
		domain, err := ReadSetting(path, "domain_name")
		if err != nil {
			return Config{}, fmt.Errorf("resolve default forcing path: %w", err)
		}
		cfg.RootPath = root
		cfg.DomainName = domain
		cfg.ForcingPath = filepath.Join(root, "domain_"+domain, "forcing", "raw")
	} else {
		cfg.ForcingPath = forcing
	}

	years, err := ReadSetting(path, "forcing_raw_time")
	if err != nil {
		return Config{}, err
	}
	cfg.StartYear, cfg.EndYear, err = parseYears(years)
	if err != nil {
		return Config{}, err
	}

	space, err := ReadSetting(path, "forcing_raw_space")
	if err != nil {
		return Config{}, err
	}
	cfg.Box, err = grid.ParseBox(space)
	if err != nil {
		return Config{}, fmt.Errorf("parse forcing_raw_space: %w", err)
	}

	if v, err := ReadSetting(path, "forcing_variables"); err == nil {
		if v != "default" {
			cfg.Variables = splitList(v)
			if len(cfg.Variables) == 0 {
				return Config{}, errors.New("config: forcing_variables is empty")
			}
		}
	} else if !errors.Is(err, ErrSettingNotFound) {
		return Config{}, err
	}

	if v, err := ReadSetting(path, "retry_attempts"); err == nil {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse retry_attempts: %w", err)
		}
		cfg.Retry.Attempts = n
	} else if !errors.Is(err, ErrSettingNotFound) {
		return Config{}, err
	}

	return cfg, nil
}

// cdsrc mirrors the ~/.cdsapirc file of the service's own client.
type cdsrc struct {
	URL string `yaml:"url"`
	Key string `yaml:"key"`
}

// LoadCredentials resolves the CDS account details. Environment variables
// CDSAPI_URL and CDSAPI_KEY win; otherwise ~/.cdsapirc is consulted.
func (c *Config) LoadCredentials() error {
	if path := cdsrcPath(); path != "" {
		rc, err := loadCDSRC(path)
		switch {
		case err == nil:
			if rc.URL != "" {
				c.Credentials.URL = rc.URL
			}
			if rc.Key != "" {
				c.Credentials.Key = rc.Key
			}
		case errors.Is(err, os.ErrNotExist):
			// No rc file is fine; the environment may carry the key.
		default:
			return err
		}
	}

	if v := os.Getenv("CDSAPI_URL"); v != "" {
		c.Credentials.URL = v
	}
	if v := os.Getenv("CDSAPI_KEY"); v != "" {
		c.Credentials.Key = v
	}

	return nil
}

func loadCDSRC(path string) (cdsrc, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return cdsrc{}, err
	}
	var rc cdsrc
	if err := yaml.Unmarshal(data, &rc); err != nil {
		return cdsrc{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return rc, nil
}

func cdsrcPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".cdsapirc")
}

// Validate checks the settings a download plan depends on.
func (c *Config) Validate() error {
	if c.ForcingPath == "" {
		return errors.New("config: forcing path is required")
	}
	if c.StartYear == 0 || c.EndYear == 0 {
		return errors.New("config: year range is required")
	}
	if c.EndYear < c.StartYear {
		return fmt.Errorf("config: end year %d before start year %d", c.EndYear, c.StartYear)
	}
	if err := c.Box.Validate(); err != nil {
		return err
	}
	if c.Retry.Attempts < 1 {
		return errors.New("config: retry attempts must be at least 1")
	}
	return nil
}

// ValidateCredentials checks the account details needed to call the
// retrieval API. Offline commands skip this.
func (c *Config) ValidateCredentials() error {
	if c.Credentials.URL == "" {
		return errors.New("config: CDS API URL is required")
	}
	if c.Credentials.Key == "" {
		return errors.New("config: CDS API key is required (set CDSAPI_KEY or create ~/.cdsapirc)")
	}
	return nil
}

func parseYears(s string) (start, end int, err error) {
	first, second, found := strings.Cut(s, ",")
	if !found {
		return 0, 0, fmt.Errorf("config: forcing_raw_time must be startYear,endYear: %q", s)
	}
	start, err = strconv.Atoi(strings.TrimSpace(first))
	if err != nil {
		return 0, 0, fmt.Errorf("config: parse start year: %w", err)
	}
	end, err = strconv.Atoi(strings.TrimSpace(second))
	if err != nil {
		return 0, 0, fmt.Errorf("config: parse end year: %w", err)
	}
	return start, end, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
