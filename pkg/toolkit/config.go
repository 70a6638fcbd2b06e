package toolkit

import (
	"fmt"
	"strconv"

	"github.com/mitchellh/mapstructure"
)

// Config is the part of a toolkit's config section every toolkit shares.
type Config struct {
	Enabled      *bool             `yaml:"enabled"`
	Descriptions map[string]string `yaml:"descriptions"`
}

// IsEnabled reports whether the toolkit is on. Omitted means enabled.
func (c Config) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// DecodeConfig decodes a raw toolkit section into out. Values are weakly
// typed so environment-expanded strings decode into numbers, booleans and
// durations.
func DecodeConfig(raw map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "yaml",
		WeaklyTypedInput: true,
		Squash:           true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("creating config decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("decoding toolkit config: %w", err)
	}
	return nil
}

// IDString renders a numeric identifier, or "" when the platform left it
// unset, for use as a Reshape key.
func IDString(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}
