package main

import (
	_ "embed"
	"fmt"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/Zachkp/folio/reveal"
)

//go:embed presets.toml
var defaultPresets []byte

// Preset is the reveal timing for one page section
type Preset struct {
	Mode        string   `toml:"mode"`
	DelayMS     int      `toml:"delay_ms"`
	StaggerMS   int      `toml:"stagger_ms"`
	ColumnSize  int      `toml:"column_size"`
	ColumnMS    int      `toml:"column_ms"`
	DurationMS  *int     `toml:"duration_ms"`
	Easing      string   `toml:"easing"`
	Alphabet    string   `toml:"alphabet"`
	UseSource   *bool    `toml:"use_source"`
	ShowPower   *float64 `toml:"show_power"`
	MashPower   *float64 `toml:"mash_power"`
	DonePower   *float64 `toml:"done_power"`
	Mutation    *float64 `toml:"mutation"`
	Cursor      *string  `toml:"cursor"`
	Prescramble bool     `toml:"prescramble"`
}

type presetTable map[string]Preset

var presets presetTable

func parsePresets(data []byte) (presetTable, error) {
	var table presetTable
	if _, err := toml.Decode(string(data), &table); err != nil {
		return nil, fmt.Errorf("parse presets: %w", err)
	}
	for name, p := range table {
		if p.Mode != "" && p.Mode != "decode" && p.Mode != "type" {
			return nil, fmt.Errorf("parse presets: %s: unknown mode %q", name, p.Mode)
		}
		if p.Easing != "" {
			if _, ok := reveal.EasingByName(p.Easing); !ok {
				return nil, fmt.Errorf("parse presets: %s: unknown easing %q", name, p.Easing)
			}
		}
	}
	return table, nil
}

// For returns the preset for a section, or an empty preset
func (t presetTable) For(section string) Preset {
	return t[section]
}

// Delay staggers entry i of a section
func (p Preset) Delay(i int) time.Duration {
	ms := p.DelayMS + i*p.StaggerMS
	if p.ColumnSize > 0 {
		ms += (i / p.ColumnSize) * p.ColumnMS
	}
	return time.Duration(ms) * time.Millisecond
}

// Config builds the reveal configuration for entry i
func (p Preset) Config(i int) reveal.Config {
	cfg := reveal.DefaultConfig()
	if p.Mode == "type" {
		cfg.Mode = reveal.ModeType
	}
	cfg.Delay = p.Delay(i)
	if p.DurationMS != nil {
		cfg.Duration = time.Duration(*p.DurationMS) * time.Millisecond
	}
	if e, ok := reveal.EasingByName(p.Easing); ok {
		cfg.Easing = e
	}
	if p.Alphabet != "" {
		cfg.Alphabet = p.Alphabet
	}
	if p.UseSource != nil {
		cfg.UseSource = *p.UseSource
	}
	if p.ShowPower != nil {
		cfg.ShowPower = *p.ShowPower
	}
	if p.MashPower != nil {
		cfg.MashPower = *p.MashPower
	}
	if p.DonePower != nil {
		cfg.DonePower = *p.DonePower
	}
	if p.Mutation != nil {
		cfg.Mutation = *p.Mutation
	}
	if p.Cursor != nil {
		cfg.Cursor = *p.Cursor
	}
	cfg.Prescramble = p.Prescramble
	return cfg
}
