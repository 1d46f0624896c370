package config

import (
	"time"

	"gopkg.in/yaml.v2"
)

type ChaincodeConfig struct {
	Enabled        bool          `yaml:"enabled"`
	NetworkPath    string        `yaml:"network-path"`
	ChannelName    string        `yaml:"channel-name"`
	ChaincodeName  string        `yaml:"chaincode-name"`
	OrdererAddress string        `yaml:"orderer-address"`
	OrdererCACert  string        `yaml:"orderer-ca-cert"`
	PeerAddresses  []string      `yaml:"peer-addresses"`
	PeerRootCerts  []string      `yaml:"peer-root-certs"`
	MSPID          string        `yaml:"msp-id"`
	MSPConfigPath  string        `yaml:"msp-config-path"`
	TLSEnabled     bool          `yaml:"tls-enabled"`
	InvokeTimeout  time.Duration `yaml:"invoke-timeout"`
	QueryTimeout   time.Duration `yaml:"query-timeout"`
}

func (c *ChaincodeConfig) UnmarshalYAML(unmarshal func(any) error) error {
	var raw struct {
		Enabled        bool     `yaml:"enabled"`
		NetworkPath    string   `yaml:"network-path"`
		ChannelName    string   `yaml:"channel-name"`
		ChaincodeName  string   `yaml:"chaincode-name"`
		OrdererAddress string   `yaml:"orderer-address"`
		OrdererCACert  string   `yaml:"orderer-ca-cert"`
		PeerAddresses  []string `yaml:"peer-addresses"`
		PeerRootCerts  []string `yaml:"peer-root-certs"`
		MSPID          string   `yaml:"msp-id"`
		MSPConfigPath  string   `yaml:"msp-config-path"`
		TLSEnabled     bool     `yaml:"tls-enabled"`
		InvokeTimeout  uint32   `yaml:"invoke-timeout"`
		QueryTimeout   uint32   `yaml:"query-timeout"`
	}

	if err := unmarshal(&raw); err != nil {
		return err
	}

	if raw.Enabled && len(raw.PeerAddresses) != len(raw.PeerRootCerts) {
		return &yaml.TypeError{Errors: []string{"peer-addresses and peer-root-certs must match"}}
	}

	c.Enabled = raw.Enabled
	c.NetworkPath = raw.NetworkPath
	c.ChannelName = raw.ChannelName
	c.ChaincodeName = raw.ChaincodeName
	c.OrdererAddress = raw.OrdererAddress
	c.OrdererCACert = raw.OrdererCACert
	c.PeerAddresses = raw.PeerAddresses
	c.PeerRootCerts = raw.PeerRootCerts
	c.MSPID = raw.MSPID
	c.MSPConfigPath = raw.MSPConfigPath
	c.TLSEnabled = raw.TLSEnabled
	c.InvokeTimeout = time.Duration(raw.InvokeTimeout) * time.Second
	c.QueryTimeout = time.Duration(raw.QueryTimeout) * time.Second

	if c.ChannelName == "" {
		c.ChannelName = "mychannel"
	}

	if c.ChaincodeName == "" {
		c.ChaincodeName = "voting"
	}

	if c.InvokeTimeout == 0 {
		c.InvokeTimeout = 60 * time.Second
	}

	if c.QueryTimeout == 0 {
		c.QueryTimeout = 30 * time.Second
	}

	return nil
}
