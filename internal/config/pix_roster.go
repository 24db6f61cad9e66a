package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-viper/mapstructure/v2"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const rosterKey = "pix.subscriptions"

// PixSubscriptionEntry is one roster row as written in pix-subscriptions.yml.
type PixSubscriptionEntry struct {
	ID           string `mapstructure:"id"`
	CustomerName string `mapstructure:"customerName"`
	PlanType     string `mapstructure:"planType"`
	Amount       string `mapstructure:"amount"`
	StartDate    string `mapstructure:"startDate"`
	Active       bool   `mapstructure:"active"`
}

// PixSubscription is a validated roster row.
type PixSubscription struct {
	ID           string
	CustomerName string
	PlanType     string
	Amount       decimal.Decimal
	StartDate    time.Time
	Active       bool
}

type PixRosterHolder struct {
	current atomic.Value // holds []PixSubscription
}

// NewPixRosterHolder loads the transfer roster and keeps it current while
// the file changes. An absent file yields an empty roster; a reload that
// fails validation keeps the previous roster.
func NewPixRosterHolder(cfg Config, log *zap.Logger) (*PixRosterHolder, error) {
	log = log.Named("config.pix_roster")
	v := viper.New()

	if cfg.PixRosterPath != "" {
		v.SetConfigFile(cfg.PixRosterPath)
	} else {
		v.SetConfigName("pix-subscriptions")
		v.SetConfigType("yml")
		v.AddConfigPath("/var/lib/revenuepulse/config")
		v.AddConfigPath("/etc/revenuepulse")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("REVENUEPULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	holder := &PixRosterHolder{}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read pix roster: %w", err)
		}
		log.Warn("pix roster not found, continuing with an empty roster")
		holder.current.Store([]PixSubscription{})
		return holder, nil
	}

	roster, err := decodeRoster(v)
	if err != nil {
		return nil, err
	}
	holder.current.Store(roster)
	log.Info("pix roster loaded",
		zap.String("file", v.ConfigFileUsed()),
		zap.Int("subscriptions", len(roster)),
	)

	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := decodeRoster(v)
		if err != nil {
			log.Warn("invalid pix roster ignored", zap.String("file", e.Name), zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("pix roster reloaded", zap.String("file", e.Name), zap.Int("subscriptions", len(updated)))
	})
	v.WatchConfig()

	return holder, nil
}

// NewStaticPixRoster returns a holder pinned to roster.
func NewStaticPixRoster(roster []PixSubscription) *PixRosterHolder {
	holder := &PixRosterHolder{}
	holder.current.Store(append([]PixSubscription{}, roster...))
	return holder
}

func (h *PixRosterHolder) Get() []PixSubscription {
	return h.current.Load().([]PixSubscription)
}

func decodeRoster(v *viper.Viper) ([]PixSubscription, error) {
	var entries []PixSubscriptionEntry
	hooks := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		timeToStringHook,
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.UnmarshalKey(rosterKey, &entries, hooks); err != nil {
		return nil, fmt.Errorf("decode %s: %w", rosterKey, err)
	}
	return ValidateRoster(entries)
}

// timeToStringHook renders YAML timestamps (an unquoted startDate) as RFC 3339
// so they decode into string fields.
func timeToStringHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to.Kind() != reflect.String {
		return data, nil
	}
	switch t := data.(type) {
	case time.Time:
		return t.UTC().Format(time.RFC3339), nil
	case *time.Time:
		if t != nil {
			return t.UTC().Format(time.RFC3339), nil
		}
	}
	return data, nil
}

// ValidateRoster parses every entry and rejects the whole roster when any row
// is unusable or two rows share an id.
func ValidateRoster(entries []PixSubscriptionEntry) ([]PixSubscription, error) {
	seen := make(map[string]struct{}, len(entries))
	roster := make([]PixSubscription, 0, len(entries))
	for i, entry := range entries {
		sub, err := parseEntry(entry)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", rosterKey, i, err)
		}
		if _, dup := seen[sub.ID]; dup {
			return nil, fmt.Errorf("%s[%d]: duplicate id %q", rosterKey, i, sub.ID)
		}
		seen[sub.ID] = struct{}{}
		roster = append(roster, sub)
	}
	return roster, nil
}

func parseEntry(entry PixSubscriptionEntry) (PixSubscription, error) {
	id := strings.TrimSpace(entry.ID)
	if id == "" {
		return PixSubscription{}, errors.New("id is required")
	}
	customer := strings.TrimSpace(entry.CustomerName)
	if customer == "" {
		return PixSubscription{}, errors.New("customerName is required")
	}
	plan := strings.TrimSpace(entry.PlanType)
	if plan == "" {
		return PixSubscription{}, errors.New("planType is required")
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(entry.Amount))
	if err != nil {
		return PixSubscription{}, fmt.Errorf("amount %q: %w", entry.Amount, err)
	}
	if !amount.IsPositive() {
		return PixSubscription{}, fmt.Errorf("amount must be positive, got %s", amount)
	}

	start, err := parseStartDate(entry.StartDate)
	if err != nil {
		return PixSubscription{}, err
	}

	return PixSubscription{
		ID:           id,
		CustomerName: customer,
		PlanType:     plan,
		Amount:       amount,
		StartDate:    start,
		Active:       entry.Active,
	}, nil
}

func parseStartDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("startDate %q is not YYYY-MM-DD or RFC 3339", raw)
}
