package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

func TestConfigTestSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

type ConfigTestSuite struct {
	suite.Suite
}

func (s *ConfigTestSuite) TestDefaults() {
	conf := Default()
	s.Require().NotNil(conf)

	s.False(conf.IsDevelopment)
	s.Equal(":7777", conf.RESTListenAddress)
	s.Equal(30*time.Second, conf.StopTimeout)

	s.Equal(10*time.Second, conf.Indexer.PollInterval)
	s.Equal(100, conf.Indexer.PageSize)
	s.Equal(":8080", conf.Registrar.ListenAddress)
	s.Equal("datacert:scores", conf.Registrar.ScoreUpdateChannel)
	s.Equal(20*time.Second, conf.Enclave.RequestTimeout)
	s.Empty(conf.Ledger.SignerKey)
	s.False(conf.Redis.Enabled)
}

func (s *ConfigTestSuite) TestLoadFromFile() {
	content := `{
		"IsDevelopment": true,
		"Indexer": {"PollInterval": "3s", "PageSize": 7},
		"Ledger": {"RpcUrl": "http://localhost:9000"}
	}`
	path := filepath.Join(s.T().TempDir(), "config.json")
	s.Require().NoError(os.WriteFile(path, []byte(content), 0o600))

	conf, err := Load(path)
	s.Require().NoError(err)

	s.True(conf.IsDevelopment)
	s.Equal(3*time.Second, conf.Indexer.PollInterval)
	s.Equal(7, conf.Indexer.PageSize)
	s.Equal("http://localhost:9000", conf.Ledger.RpcUrl)

	// Untouched sections keep their defaults
	s.Equal(":8080", conf.Registrar.ListenAddress)
}

func (s *ConfigTestSuite) TestEnvOverride() {
	s.T().Setenv("DATACERT_LEDGER_RPC_URL", "http://ledger.test:9000")
	s.T().Setenv("DATACERT_INDEXER_PAGE_SIZE", "11")
	s.T().Setenv("DATACERT_ENCLAVE_EXPECTED_MEASUREMENTS", "aa,bb")

	conf, err := Load("")
	s.Require().NoError(err)

	s.Equal("http://ledger.test:9000", conf.Ledger.RpcUrl)
	s.Equal(11, conf.Indexer.PageSize)
	s.Equal([]string{"aa", "bb"}, conf.Enclave.ExpectedMeasurements)
}

func (s *ConfigTestSuite) TestMissingFile() {
	_, err := Load("/nonexistent/config.json")
	s.Error(err)
}
