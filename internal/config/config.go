package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"
)

// Queue defines one execution queue and the lifecycle phases that feed it
type Queue struct {
	Name       string   `yaml:"name" validate:"required"`
	Phases     []string `yaml:"phases" validate:"required,min=1,dive,required"`
	Prioritize bool     `yaml:"prioritize"`
}

// Defaults are used for optional WSJF columns that are missing or empty
type Defaults struct {
	Value   float64 `yaml:"value"`
	Urgency float64 `yaml:"urgency"`
	Risk    float64 `yaml:"risk"`
	Size    float64 `yaml:"size" validate:"gt=0"`
}

// Validation holds the accepted ranges for item fields
type Validation struct {
	ValueRange       []float64 `yaml:"valueRange" validate:"len=2"`
	UrgencyRange     []float64 `yaml:"urgencyRange" validate:"len=2"`
	RiskRange        []float64 `yaml:"riskRange" validate:"len=2"`
	SizeMin          float64   `yaml:"sizeMin" validate:"gt=0"`
	ValidMicroPhases []string  `yaml:"validMicroPhases,omitempty"`
}

// Prioritization selects the strategies used for each queue
type Prioritization struct {
	DefaultStrategy      string            `yaml:"defaultStrategy" validate:"required,oneof=sainte-lague dhondt wsjf"`
	QueueStrategies      map[string]string `yaml:"queueStrategies,omitempty" validate:"dive,oneof=sainte-lague dhondt wsjf"`
	AutoNormalizeWeights bool              `yaml:"autoNormalizeWeights"`
}

// Locale describes the CSV dialect of input and output files
type Locale struct {
	CSVDelimiter     string `yaml:"csvDelimiter" validate:"required,len=1"`
	DecimalSeparator string `yaml:"decimalSeparator" validate:"required,len=1"`
}

// Output controls exported files
type Output struct {
	Dir              string `yaml:"dir" validate:"required"`
	DecimalPrecision int    `yaml:"decimalPrecision" validate:"min=0,max=10"`
	IncludeMetadata  bool   `yaml:"includeMetadata"`
	DateFormat       string `yaml:"dateFormat" validate:"required"`
}

// Database selects the run history store
type Database struct {
	Driver string `yaml:"driver" validate:"required,oneof=sqlite postgres"`
	DSN    string `yaml:"dsn" validate:"required"`
}

// Sheets locates input and output spreadsheets in Google Sheets
type Sheets struct {
	DemandSheetID    string `yaml:"demandSheetID,omitempty"`
	IdeasTab         string `yaml:"ideasTab,omitempty"`
	AreaWeightsTab   string `yaml:"areaWeightsTab,omitempty"`
	StreamWeightsTab string `yaml:"streamWeightsTab,omitempty"`
	RankingSheetID   string `yaml:"rankingSheetID,omitempty"`
}

// Config represents the application configuration
type Config struct {
	RevenueStreams  []string       `yaml:"revenueStreams" validate:"required,min=1,unique"`
	BudgetGroups    []string       `yaml:"budgetGroups" validate:"required,min=1,unique"`
	Queues          []Queue        `yaml:"queues" validate:"required,min=1,dive"`
	Defaults        Defaults       `yaml:"defaults"`
	Validation      Validation     `yaml:"validation"`
	Prioritization  Prioritization `yaml:"prioritization"`
	Locale          Locale         `yaml:"locale"`
	Output          Output         `yaml:"output"`
	Database        Database       `yaml:"database"`
	Sheets          Sheets         `yaml:"sheets,omitempty"`
	PlanningCadence string         `yaml:"planningCadence,omitempty"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Default returns a configuration with every optional section filled in.
// Files are decoded on top of it, so omitted sections keep these values.
func Default() *Config {
	return &Config{
		Queues: []Queue{
			{Name: "NOW", Phases: []string{"Development", "Testing", "Ready for Release"}, Prioritize: true},
			{Name: "NEXT", Phases: []string{"Solution Defined", "Ready for Development"}, Prioritize: true},
			{Name: "LATER", Phases: []string{"Backlog", "Discovery", "Assessment"}, Prioritize: true},
			{Name: "PRODUCTION", Phases: []string{"Production", "Done"}, Prioritize: false},
		},
		Defaults: Defaults{Value: 5, Urgency: 5, Risk: 5, Size: 5},
		Validation: Validation{
			ValueRange:   []float64{1, 10},
			UrgencyRange: []float64{1, 10},
			RiskRange:    []float64{1, 10},
			SizeMin:      1,
		},
		Prioritization: Prioritization{
			DefaultStrategy:      "sainte-lague",
			AutoNormalizeWeights: true,
		},
		Locale: Locale{CSVDelimiter: ";", DecimalSeparator: ","},
		Output: Output{
			Dir:              "./data/output",
			DecimalPrecision: 2,
			IncludeMetadata:  true,
			DateFormat:       "2006-01-02 15:04:05",
		},
		Database: Database{Driver: "sqlite", DSN: "demand_runs.db"},
	}
}

// Load loads and validates the configuration from demand_config.yaml
// It looks for the config file in the current directory first, then in the user's home directory
func Load() (*Config, error) {
	return LoadWithEnv("")
}

// LoadWithEnv loads the configuration for an environment.
// For example, env="test" will look for "demand_config.test.yaml"
func LoadWithEnv(env string) (*Config, error) {
	configPath, err := locate(envFileName("demand_config.yaml", env))
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration struct and the rules tags cannot express
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	var names []string
	for _, q := range cfg.Queues {
		if slices.Contains(names, q.Name) {
			return fmt.Errorf("duplicate queue name: %s", q.Name)
		}
		names = append(names, q.Name)
	}

	for queue := range cfg.Prioritization.QueueStrategies {
		if !slices.Contains(names, queue) {
			return fmt.Errorf("queueStrategies references unknown queue: %s", queue)
		}
	}

	ranges := map[string][]float64{
		"valueRange":   cfg.Validation.ValueRange,
		"urgencyRange": cfg.Validation.UrgencyRange,
		"riskRange":    cfg.Validation.RiskRange,
	}
	for name, r := range ranges {
		if r[0] > r[1] {
			return fmt.Errorf("invalid %s: minimum %v is greater than maximum %v", name, r[0], r[1])
		}
	}

	if cfg.Locale.CSVDelimiter == cfg.Locale.DecimalSeparator {
		return fmt.Errorf("csvDelimiter and decimalSeparator must differ")
	}

	if cfg.PlanningCadence != "" {
		opts, err := rrule.StrToROption(cfg.PlanningCadence)
		if err != nil {
			return fmt.Errorf("invalid rrule in planningCadence: %w", err)
		}
		if opts.Dtstart.IsZero() {
			return fmt.Errorf("invalid rrule in planningCadence: DTSTART is required to anchor the cycles")
		}
	}

	return nil
}

// QueueNames returns the configured queue names in processing order
func (c *Config) QueueNames() []string {
	names := make([]string, len(c.Queues))
	for i, q := range c.Queues {
		names[i] = q.Name
	}
	return names
}

// RequireSheets checks that the sheet locations needed to read demand data are configured
func (c *Config) RequireSheets() error {
	missing := []string{}
	if c.Sheets.DemandSheetID == "" {
		missing = append(missing, "demandSheetID")
	}
	if c.Sheets.IdeasTab == "" {
		missing = append(missing, "ideasTab")
	}
	if c.Sheets.AreaWeightsTab == "" {
		missing = append(missing, "areaWeightsTab")
	}
	if c.Sheets.StreamWeightsTab == "" {
		missing = append(missing, "streamWeightsTab")
	}
	if len(missing) > 0 {
		return fmt.Errorf("sheets configuration incomplete, missing: %v", missing)
	}
	return nil
}

// envFileName inserts the environment before the extension: ("demand_config.yaml", "test")
// becomes "demand_config.test.yaml"
func envFileName(name, env string) string {
	if env == "" {
		return name
	}
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + "." + env + ext
}

// locate searches for a file in the current directory, then in the home directory
func locate(fileName string) (string, error) {
	if _, err := os.Stat(fileName); err == nil {
		return fileName, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homePath := filepath.Join(homeDir, fileName)
	if _, err := os.Stat(homePath); err == nil {
		return homePath, nil
	}

	return "", fmt.Errorf("%s not found in current directory or home directory", fileName)
}
