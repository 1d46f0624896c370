package config

import (
	"time"

	"gopkg.in/yaml.v2"
)

type EthereumConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Endpoint      string        `yaml:"endpoint"`
	BytecodeFile  string        `yaml:"bytecode-file"`
	DeployGas     uint64        `yaml:"deploy-gas"`
	ElectionGas   uint64        `yaml:"election-gas"`
	CandidateGas  uint64        `yaml:"candidate-gas"`
	VoteGas       uint64        `yaml:"vote-gas"`
	CallTimeout   time.Duration `yaml:"call-timeout"`
	SubmitTimeout time.Duration `yaml:"submit-timeout"`
}

func (e *EthereumConfig) UnmarshalYAML(unmarshal func(any) error) error {
	var raw struct {
		Enabled       bool   `yaml:"enabled"`
		Endpoint      string `yaml:"endpoint"`
		BytecodeFile  string `yaml:"bytecode-file"`
		DeployGas     uint64 `yaml:"deploy-gas"`
		ElectionGas   uint64 `yaml:"election-gas"`
		CandidateGas  uint64 `yaml:"candidate-gas"`
		VoteGas       uint64 `yaml:"vote-gas"`
		CallTimeout   uint32 `yaml:"call-timeout"`
		SubmitTimeout uint32 `yaml:"submit-timeout"`
	}

	if err := unmarshal(&raw); err != nil {
		return err
	}

	if raw.Enabled && raw.Endpoint == "" {
		return &yaml.TypeError{Errors: []string{"ethereum endpoint is required"}}
	}

	e.Enabled = raw.Enabled
	e.Endpoint = raw.Endpoint
	e.BytecodeFile = raw.BytecodeFile
	e.DeployGas = raw.DeployGas
	e.ElectionGas = raw.ElectionGas
	e.CandidateGas = raw.CandidateGas
	e.VoteGas = raw.VoteGas
	e.CallTimeout = time.Duration(raw.CallTimeout) * time.Second
	e.SubmitTimeout = time.Duration(raw.SubmitTimeout) * time.Second

	if e.CallTimeout == 0 {
		e.CallTimeout = 10 * time.Second
	}

	if e.SubmitTimeout == 0 {
		e.SubmitTimeout = 60 * time.Second
	}

	return nil
}
