package configuration

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/caarlos0/env/v11"
	"github.com/iota-uz/utils/fs"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/orgplan/pkg/intl"
	"github.com/iota-uz/orgplan/pkg/logging"
)

const Production = "production"

// LoadEnv loads the env files that exist in the working directory. When none
// do, it retries relative to the nearest directory holding a go.mod, so tools
// started from a package directory still pick up the repository's files.
func LoadEnv(envFiles []string) (int, error) {
	existing := existingFiles("", envFiles)
	if len(existing) == 0 {
		if root, ok := moduleRoot(); ok {
			existing = existingFiles(root, envFiles)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

func existingFiles(dir string, envFiles []string) []string {
	out := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		path := file
		if dir != "" && !filepath.IsAbs(file) {
			path = filepath.Join(dir, file)
		}
		if fs.FileExists(path) {
			out = append(out, path)
		}
	}
	return out
}

func moduleRoot() (string, bool) {
	dir, err := os.Getwd()
	if err != nil {
		return "", false
	}
	for {
		if fs.FileExists(filepath.Join(dir, "go.mod")) {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

type LogOptions struct {
	Level string `env:"LOG_LEVEL" envDefault:"error"`
	// Path is where JSON logs are written in addition to stderr. Empty
	// means console only.
	Path string `env:"LOG_PATH" envDefault:""`
}

type PlanningOptions struct {
	Currency             string `env:"ORG_CURRENCY" envDefault:"USD"`
	PrimaryRatePerHead   int64  `env:"ORG_PRIMARY_RATE_PER_HEAD" envDefault:"1000"`
	AlternateRatePerHead int64  `env:"ORG_ALTERNATE_RATE_PER_HEAD" envDefault:"800"`
	// ShowAlternateRate adds the alternate expected capacity column to reports.
	ShowAlternateRate bool `env:"ORG_SHOW_ALTERNATE_RATE" envDefault:"false"`
}

// Validate checks the planning configuration for errors
func (p *PlanningOptions) Validate() error {
	p.Currency = strings.ToUpper(strings.TrimSpace(p.Currency))
	if len(p.Currency) != 3 {
		return fmt.Errorf("invalid ORG_CURRENCY=%q (expected a 3-letter ISO code)", p.Currency)
	}
	if money.GetCurrency(p.Currency) == nil {
		return fmt.Errorf("unknown ORG_CURRENCY=%q", p.Currency)
	}
	if p.PrimaryRatePerHead < 0 {
		return fmt.Errorf("ORG_PRIMARY_RATE_PER_HEAD must be non-negative, got %d", p.PrimaryRatePerHead)
	}
	if p.AlternateRatePerHead < 0 {
		return fmt.Errorf("ORG_ALTERNATE_RATE_PER_HEAD must be non-negative, got %d", p.AlternateRatePerHead)
	}
	return nil
}

type TerritoryOptions struct {
	UnassignedKey string `env:"TERRITORY_UNASSIGNED_KEY" envDefault:"unassigned"`
	// DefaultBudget is used by allocate when neither the plan file nor the
	// flags name a budget.
	DefaultBudget decimal.Decimal `env:"TERRITORY_DEFAULT_BUDGET" envDefault:"0"`
}

func (t *TerritoryOptions) Validate() error {
	t.UnassignedKey = strings.TrimSpace(t.UnassignedKey)
	if t.UnassignedKey == "" {
		return fmt.Errorf("TERRITORY_UNASSIGNED_KEY must not be empty")
	}
	if t.DefaultBudget.IsNegative() {
		return fmt.Errorf("TERRITORY_DEFAULT_BUDGET must be non-negative, got %s", t.DefaultBudget)
	}
	if !t.DefaultBudget.Equal(t.DefaultBudget.Truncate(0)) {
		return fmt.Errorf("TERRITORY_DEFAULT_BUDGET must be a whole number, got %s", t.DefaultBudget)
	}
	return nil
}

type Configuration struct {
	Log       LogOptions
	Planning  PlanningOptions
	Territory TerritoryOptions

	// Locale picks the message bundle used for user-facing validation text.
	Locale           string `env:"ORG_LOCALE" envDefault:"en"`
	GoAppEnvironment string `env:"GO_APP_ENV" envDefault:"development"`

	logFile *os.File
	logger  *logrus.Logger
}

func (c *Configuration) Logger() *logrus.Logger {
	return c.logger
}

func (c *Configuration) LogrusLogLevel() logrus.Level {
	switch strings.ToLower(strings.TrimSpace(c.Log.Level)) {
	case "silent":
		return logrus.PanicLevel
	case "error":
		return logrus.ErrorLevel
	case "warn":
		return logrus.WarnLevel
	case "info":
		return logrus.InfoLevel
	case "debug":
		return logrus.DebugLevel
	default:
		return logrus.ErrorLevel
	}
}

func (c *Configuration) IsProduction() bool {
	return c.GoAppEnvironment == Production
}

// Load builds a configuration from the given env files. Each call parses the
// environment again.
func Load(envFiles ...string) (*Configuration, error) {
	c := &Configuration{}
	if err := c.load(envFiles); err != nil {
		c.Unload()
		return nil, err
	}
	return c, nil
}

func (c *Configuration) Validate() error {
	c.Locale = strings.ToLower(strings.TrimSpace(c.Locale))
	if len(intl.GetSupportedLanguages([]string{c.Locale})) == 0 {
		return fmt.Errorf("unsupported ORG_LOCALE=%q", c.Locale)
	}
	if err := c.Planning.Validate(); err != nil {
		return fmt.Errorf("planning configuration error: %w", err)
	}
	if err := c.Territory.Validate(); err != nil {
		return fmt.Errorf("territory configuration error: %w", err)
	}
	return nil
}

func (c *Configuration) load(envFiles []string) error {
	n, err := LoadEnv(envFiles)
	if err != nil {
		return err
	}
	if n == 0 && len(envFiles) > 0 && os.Getenv("GO_APP_ENV") == Production {
		wd, _ := os.Getwd()
		log.Println("No .env files found. Tried:")
		for _, file := range envFiles {
			log.Println(filepath.Join(wd, file))
		}
	}
	if err := env.Parse(c); err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return err
	}

	f, logger, err := logging.FileLogger(c.LogrusLogLevel(), c.Log.Path)
	if err != nil {
		return err
	}
	c.logFile = f
	c.logger = logger
	return nil
}

// Unload handles a graceful shutdown.
func (c *Configuration) Unload() {
	if c.logFile != nil {
		if err := c.logFile.Close(); err != nil {
			log.Printf("Failed to close log file: %v", err)
		}
		c.logFile = nil
	}
}
