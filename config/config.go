// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/ava-labs/avalanchego/utils/logging"
	"gopkg.in/yaml.v2"

	"github.com/ava-labs/computeledger/codec"
	"github.com/ava-labs/computeledger/consts"
	"github.com/ava-labs/computeledger/ledger"
	"github.com/ava-labs/computeledger/pebble"
	"github.com/ava-labs/computeledger/server"
	"github.com/ava-labs/computeledger/serving"
	"github.com/ava-labs/computeledger/settlement"
	"github.com/ava-labs/computeledger/trace"
)

const (
	defaultMinBalance        = 100
	defaultMinTransfer       = 10
	defaultLockTime          = 24 * time.Hour
	defaultPenaltyPercent    = 30
	defaultDomainTag         = "computeledger"
	defaultNetworkID         = 1337
	defaultHTTPHost          = "127.0.0.1"
	defaultHTTPPort          = 9650
	defaultReadHeaderTimeout = 10 * time.Second
	defaultDataDir           = ".computeledger/db"
	defaultLogDir            = ".computeledger/logs"
	defaultLogLevel          = "info"
	defaultLogMaxSizeMB      = 8
	defaultLogMaxFiles       = 5
	defaultLogMaxAgeDays     = 0
)

var (
	ErrInvalidPenalty  = errors.New("penalty percent above 100")
	ErrNoServices      = errors.New("no services configured")
	ErrDuplicateName   = errors.New("duplicate service name")
	ErrMissingName     = errors.New("service name missing")
	ErrInvalidLockTime = errors.New("lock time must be positive")
)

type Service struct {
	Name           string        `json:"name"           yaml:"name"`
	LockTime       time.Duration `json:"lockTime"       yaml:"lockTime"`
	PenaltyPercent uint64        `json:"penaltyPercent" yaml:"penaltyPercent"`
	MinStake       uint64        `json:"minStake"       yaml:"minStake"`
}

type Config struct {
	// Ledger
	MinBalance  uint64    `json:"minBalance"  yaml:"minBalance"`
	MinTransfer uint64    `json:"minTransfer" yaml:"minTransfer"`
	Services    []Service `json:"services"    yaml:"services"`

	// Signing domain
	DomainTag string `json:"domainTag" yaml:"domainTag"`
	NetworkID uint32 `json:"networkId" yaml:"networkId"`
	LedgerID  string `json:"ledgerId"  yaml:"ledgerId"`

	// Storage
	DataDir string        `json:"dataDir" yaml:"dataDir"`
	Pebble  pebble.Config `json:"pebble"  yaml:"pebble"`

	// HTTP
	HTTPHost       string        `json:"httpHost"       yaml:"httpHost"`
	HTTPPort       uint16        `json:"httpPort"       yaml:"httpPort"`
	API            server.Config `json:"api"            yaml:"api"`
	StreamReceipts bool          `json:"streamReceipts" yaml:"streamReceipts"`

	// Tracing
	Trace trace.Config `json:"trace" yaml:"trace"`

	// Logging
	LogLevel      string `json:"logLevel"      yaml:"logLevel"`
	LogDir        string `json:"logDir"        yaml:"logDir"`
	LogMaxSizeMB  int    `json:"logMaxSizeMB"  yaml:"logMaxSizeMB"`
	LogMaxFiles   int    `json:"logMaxFiles"   yaml:"logMaxFiles"`
	LogMaxAgeDays int    `json:"logMaxAgeDays" yaml:"logMaxAgeDays"`
	LogCompress   bool   `json:"logCompress"   yaml:"logCompress"`

	ledgerID codec.Address
	logLevel logging.Level
}

// New parses [b] as YAML (or JSON) on top of the defaults and validates
// the result.
func New(b []byte) (*Config, error) {
	c := &Config{}
	c.setDefault()
	if len(b) > 0 {
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config %s: %w", string(b), err)
		}
	}
	for i := range c.Services {
		if c.Services[i].LockTime == 0 {
			c.Services[i].LockTime = defaultLockTime
		}
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) setDefault() {
	c.MinBalance = defaultMinBalance
	c.MinTransfer = defaultMinTransfer
	c.Services = []Service{{
		Name:           "inference",
		LockTime:       defaultLockTime,
		PenaltyPercent: defaultPenaltyPercent,
	}}
	c.DomainTag = defaultDomainTag
	c.NetworkID = defaultNetworkID
	c.DataDir = defaultDataDir
	c.Pebble = pebble.NewDefaultConfig()
	c.HTTPHost = defaultHTTPHost
	c.HTTPPort = defaultHTTPPort
	c.API = server.Config{
		ReadHeaderTimeout: defaultReadHeaderTimeout,
		ShutdownTimeout:   server.DefaultShutdownTimeout,
	}
	c.StreamReceipts = true
	c.Trace = trace.Config{
		Endpoint:        trace.DefaultEndpoint,
		TraceSampleRate: 0.1,
		AppName:         defaultDomainTag,
	}
	c.LogDir = defaultLogDir
	c.LogLevel = defaultLogLevel
	c.LogMaxSizeMB = defaultLogMaxSizeMB
	c.LogMaxFiles = defaultLogMaxFiles
	c.LogMaxAgeDays = defaultLogMaxAgeDays
}

func (c *Config) Validate() error {
	if len(c.Services) == 0 {
		return ErrNoServices
	}
	seen := make(map[string]struct{}, len(c.Services))
	for _, s := range c.Services {
		if len(s.Name) == 0 {
			return ErrMissingName
		}
		if _, ok := seen[s.Name]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateName, s.Name)
		}
		seen[s.Name] = struct{}{}
		if s.PenaltyPercent > consts.PercentDenominator {
			return fmt.Errorf("%w: service=%s penalty=%d", ErrInvalidPenalty, s.Name, s.PenaltyPercent)
		}
		if s.LockTime <= 0 {
			return fmt.Errorf("%w: service=%s", ErrInvalidLockTime, s.Name)
		}
	}

	level, err := logging.ToLevel(c.LogLevel)
	if err != nil {
		return err
	}
	c.logLevel = level

	c.ledgerID = codec.EmptyAddress
	if len(c.LedgerID) > 0 {
		id, err := codec.ParseAddress(c.LedgerID)
		if err != nil {
			return fmt.Errorf("invalid ledger id: %w", err)
		}
		c.ledgerID = id
	}
	return nil
}

func (c *Config) GetLogLevel() logging.Level { return c.logLevel }
func (c *Config) GetHTTPAddress() string     { return fmt.Sprintf("%s:%d", c.HTTPHost, c.HTTPPort) }

func (c *Config) GetLedgerConfig() ledger.Config {
	return ledger.Config{MinBalance: c.MinBalance, MinTransfer: c.MinTransfer}
}

func (c *Config) GetDomain() settlement.Domain {
	return settlement.Domain{
		Tag:       c.DomainTag,
		NetworkID: c.NetworkID,
		Ledger:    c.ledgerID,
	}
}

func (c *Config) GetServiceConfigs() []serving.Config {
	out := make([]serving.Config, len(c.Services))
	for i, s := range c.Services {
		out[i] = serving.Config{
			Name:           s.Name,
			LockTime:       s.LockTime,
			PenaltyPercent: s.PenaltyPercent,
			MinStake:       s.MinStake,
			Domain:         c.GetDomain(),
		}
	}
	return out
}

func (c *Config) GetLoggingConfig() logging.Config {
	return logging.Config{
		RotatingWriterConfig: logging.RotatingWriterConfig{
			MaxSize:   c.LogMaxSizeMB,
			MaxFiles:  c.LogMaxFiles,
			MaxAge:    c.LogMaxAgeDays,
			Directory: c.LogDir,
			Compress:  c.LogCompress,
		},
		LogLevel:     c.logLevel,
		DisplayLevel: c.logLevel,
		LogFormat:    logging.Colors,
	}
}
