package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// serversFile is the YAML layout of ROOMWATCH_SERVERS_FILE:
//
//	servers:
//	  - play-eu.example.com:7000
//	  - 10.0.0.12:7000
type serversFile struct {
	Servers []string `yaml:"servers"`
}

// LoadServersFile returns the raw server entries listed in a YAML file.
func LoadServersFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read servers file: %w", err)
	}

	var f serversFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse servers yaml: %w", err)
	}

	return f.Servers, nil
}
