package engine

import (
	"encoding/json"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"

	"github.com/stratforge-lab/stratforge/pkg/errors"
)

// WalkForwardConfig gates new entries on recent realized performance.
// The filter only engages once MinTrades trades have closed.
type WalkForwardConfig struct {
	Lookback   int     `yaml:"lookback" json:"lookback" jsonschema:"title=Lookback,description=Number of most recent closed trades the filter looks at,minimum=1" validate:"required,gt=0"`
	MinTrades  int     `yaml:"min_trades" json:"min_trades" jsonschema:"title=Minimum Trades,description=Closed trades required before the filter engages,minimum=1" validate:"required,gt=0"`
	MinWinProb float64 `yaml:"min_win_prob" json:"min_win_prob" jsonschema:"title=Minimum Win Probability,description=Rolling win probability threshold in 0..1,minimum=0,maximum=1" validate:"gte=0,lte=1"`
	MinEVBps   float64 `yaml:"min_ev_bps" json:"min_ev_bps" jsonschema:"title=Minimum Expected Value,description=Rolling expected value threshold in basis points"`
}

// OracleConfig controls the look-ahead exit optimizer. It only has an
// effect when the caller supplies look-ahead candles, which live data
// paths never do.
type OracleConfig struct {
	Enabled     bool    `yaml:"enabled" json:"enabled" jsonschema:"title=Enabled,description=Whether the oracle exit optimizer is active"`
	HorizonBars int     `yaml:"horizon_bars" json:"horizon_bars" jsonschema:"title=Horizon Bars,description=How many look-ahead bars the oracle may inspect,minimum=1" validate:"required_with=Enabled,gte=0"`
	PenaltyBps  float64 `yaml:"penalty_bps" json:"penalty_bps" jsonschema:"title=Penalty,description=Discount applied to the best look-ahead price in basis points,minimum=0" validate:"gte=0"`
}

// Config is the full executor configuration.
type Config struct {
	InitialCash   float64           `yaml:"initial_cash" json:"initial_cash" jsonschema:"title=Initial Cash,description=Starting cash for the account in quote currency,minimum=0" validate:"required,gt=0"`
	FeeBps        float64           `yaml:"fee_bps" json:"fee_bps" jsonschema:"title=Fee,description=Taker fee in basis points applied to every fill,minimum=0" validate:"gte=0"`
	SlippageBps   float64           `yaml:"slippage_bps" json:"slippage_bps" jsonschema:"title=Slippage,description=Directional slippage in basis points applied to every fill,minimum=0" validate:"gte=0"`
	RiskFraction  float64           `yaml:"risk_fraction" json:"risk_fraction" jsonschema:"title=Risk Fraction,description=Fraction of cash committed per entry,minimum=0,maximum=1" validate:"required,gt=0,lte=1"`
	MinBarsWarmup int64             `yaml:"min_bars_warmup" json:"min_bars_warmup" jsonschema:"title=Warmup Bars,description=Bars to tick indicators before signals are acted on,minimum=0" validate:"gte=0"`
	MaxHoldBars   int64             `yaml:"max_hold_bars" json:"max_hold_bars" jsonschema:"title=Max Hold Bars,description=Bars a position may be held before forced liquidation,minimum=1" validate:"required,gt=0"`
	WalkForward   WalkForwardConfig `yaml:"walk_forward" json:"walk_forward" jsonschema:"title=Walk Forward Filter"`
	Oracle        OracleConfig      `yaml:"oracle" json:"oracle" jsonschema:"title=Oracle Exit"`
}

// DefaultConfig returns a config with conservative defaults, suitable as
// a starting point for the YAML file.
func DefaultConfig() Config {
	return Config{
		InitialCash:   10_000,
		FeeBps:        10,
		SlippageBps:   5,
		RiskFraction:  0.95,
		MinBarsWarmup: 50,
		MaxHoldBars:   48,
		WalkForward: WalkForwardConfig{
			Lookback:   20,
			MinTrades:  10,
			MinWinProb: 0.35,
			MinEVBps:   -20,
		},
		Oracle: OracleConfig{
			Enabled:     false,
			HorizonBars: 5,
			PenaltyBps:  15,
		},
	}
}

// Validate validates the config.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid engine config", err)
	}

	return nil
}

// LoadConfig reads and validates a YAML config file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read config file %s", path)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse config file", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// GenerateSchema generates a JSON schema for the Config.
func (c *Config) GenerateSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
	}

	schema := reflector.Reflect(c)
	schema.Title = "Engine Config"
	schema.Description = "Configuration schema for the strategy execution engine"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}

// GenerateSchemaJSON generates a JSON schema string for the Config.
func (c *Config) GenerateSchemaJSON() (string, error) {
	schema, err := c.GenerateSchema()
	if err != nil {
		return "", err
	}

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}
