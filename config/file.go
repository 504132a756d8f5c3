package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the optional YAML document named by POLICY_FILE. The catalog section
// is only read by lendctl seed.
type File struct {
	Policy  PolicyFile     `yaml:"policy"`
	Catalog []CategorySeed `yaml:"catalog"`
}

// 指针字段：文件里没写的键不覆盖环境变量
type PolicyFile struct {
	ReservationDays   *int    `yaml:"reservation_days"`
	FallbackRecipient *string `yaml:"fallback_recipient"`
	StrictNotify      *bool   `yaml:"strict_notify"`
}

type CategorySeed struct {
	Name      string         `yaml:"name"`
	Materials []MaterialSeed `yaml:"materials"`
}

type MaterialSeed struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Quantity    int    `yaml:"quantity"`
	MaxDays     int    `yaml:"max_days"`
}

func LoadFile(path string) (*File, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}
	var f File
	if err := yaml.Unmarshal(buf, &f); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	for _, c := range f.Catalog {
		for _, m := range c.Materials {
			if m.Quantity < 0 || m.MaxDays < 1 {
				return nil, fmt.Errorf("parse config file %s: material %q needs quantity >= 0 and max_days >= 1", path, m.Name)
			}
		}
	}
	return &f, nil
}

func (p PolicyFile) apply(l *Lending) {
	if p.ReservationDays != nil {
		l.ReservationDays = *p.ReservationDays
	}
	if p.FallbackRecipient != nil {
		l.FallbackRecipient = *p.FallbackRecipient
	}
	if p.StrictNotify != nil {
		l.StrictNotify = *p.StrictNotify
	}
}
