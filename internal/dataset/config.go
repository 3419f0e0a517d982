package dataset

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

type LookupFunc func(string) (string, bool)

// Config controls one generator run. An empty SKUIDs selects the whole
// catalog. Months after Cutoff become forecast rows.
type Config struct {
	Seed   int64
	SKUIDs []int64
	Start  time.Time
	End    time.Time
	Cutoff time.Time
}

func DefaultConfig() Config {
	return Config{
		Seed:   42,
		SKUIDs: []int64{1, 8},
		Start:  time.Date(2023, time.June, 1, 0, 0, 0, 0, time.UTC),
		End:    time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC),
		Cutoff: time.Date(2025, time.August, 1, 0, 0, 0, 0, time.UTC),
	}
}

func LoadConfigFromEnv(lookup LookupFunc) (Config, error) {
	if lookup == nil {
		return Config{}, fmt.Errorf("lookup function is required")
	}

	cfg := DefaultConfig()
	if err := applyInt64(lookup, "RETAILAGENT_DATASET_SEED", &cfg.Seed); err != nil {
		return Config{}, err
	}
	if raw, ok := lookup("RETAILAGENT_DATASET_SKUS"); ok {
		ids, err := ParseSKUIDs(raw)
		if err != nil {
			return Config{}, fmt.Errorf("invalid RETAILAGENT_DATASET_SKUS: %w", err)
		}
		cfg.SKUIDs = ids
	}
	if err := applyDate(lookup, "RETAILAGENT_DATASET_START", &cfg.Start); err != nil {
		return Config{}, err
	}
	if err := applyDate(lookup, "RETAILAGENT_DATASET_END", &cfg.End); err != nil {
		return Config{}, err
	}
	if err := applyDate(lookup, "RETAILAGENT_DATASET_CUTOFF", &cfg.Cutoff); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Start.IsZero() || c.End.IsZero() || c.Cutoff.IsZero() {
		return fmt.Errorf("start, end and cutoff dates are required")
	}
	if c.End.Before(c.Start) {
		return fmt.Errorf("end date %s is before start date %s", c.End.Format(DateLayout), c.Start.Format(DateLayout))
	}
	if c.Cutoff.Before(c.Start) {
		return fmt.Errorf("cutoff date %s is before start date %s", c.Cutoff.Format(DateLayout), c.Start.Format(DateLayout))
	}
	// Months start on the first, so a mid-month start only counts from the
	// next month. The cutoff must leave at least one historical month.
	first := firstMonth(c.Start)
	if c.End.Before(first) {
		return fmt.Errorf("no month starts between %s and %s", c.Start.Format(DateLayout), c.End.Format(DateLayout))
	}
	if c.Cutoff.Before(first) {
		return fmt.Errorf("cutoff date %s leaves no historical month after start date %s", c.Cutoff.Format(DateLayout), c.Start.Format(DateLayout))
	}
	known := map[int64]bool{}
	for _, sku := range Catalog() {
		known[sku.ID] = true
	}
	for _, id := range c.SKUIDs {
		if !known[id] {
			return fmt.Errorf("unknown sku id %d", id)
		}
	}
	return nil
}

// ParseSKUIDs reads a comma-separated id list. "all" or an empty value
// selects every SKU.
func ParseSKUIDs(raw string) ([]int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "all") {
		return nil, nil
	}
	seen := map[int64]bool{}
	ids := make([]int64, 0)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("sku id %q: %w", part, err)
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func applyInt64(lookup LookupFunc, key string, dst *int64) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = v
	return nil
}

func applyDate(lookup LookupFunc, key string, dst *time.Time) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	v, err := time.Parse(DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = v
	return nil
}
