package validate

import (
	"net/url"
	"strings"

	"github.com/ppiankov/newsguard/internal/model"
)

// ReputableOverride trusts named outlets over a low-confidence FAKE verdict.
// It is read-only after construction and safe for concurrent use.
type ReputableOverride struct {
	enabled   bool
	threshold float64
	sources   []string
	domains   map[string]bool
}

// NewReputableOverride creates an override from config. A nil config uses
// the built-in defaults.
func NewReputableOverride(config *model.OverrideConfig) *ReputableOverride {
	if config == nil {
		config = &model.DefaultConfig().Override
	}

	o := &ReputableOverride{
		enabled:   config.Enabled,
		threshold: config.Threshold,
		domains:   make(map[string]bool),
	}
	if o.threshold <= 0 {
		o.threshold = 0.85
	}

	for _, s := range config.Sources {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			o.sources = append(o.sources, s)
		}
	}
	for _, d := range config.Domains {
		if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
			o.domains[d] = true
		}
	}

	return o
}

// Threshold returns the FAKE confidence below which a verdict is flipped
func (o *ReputableOverride) Threshold() float64 {
	return o.threshold
}

// IsReputable reports whether any outlet name appears in the text (case-insensitive)
func (o *ReputableOverride) IsReputable(text string) bool {
	lower := strings.ToLower(text)
	for _, s := range o.sources {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// IsReputableHost reports whether the URL's host is a known outlet domain or
// one of its subdomains.
func (o *ReputableOverride) IsReputableHost(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return false
	}

	if o.domains[host] {
		return true
	}
	for domain := range o.domains {
		if strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

// Apply runs the override on a raw verdict. confidence is the probability of
// label in [0,1]. The verdict is flipped to REAL with the complementary
// confidence when the text names a reputable outlet and FAKE was predicted
// with confidence below the threshold. Otherwise the input passes through.
func (o *ReputableOverride) Apply(text string, label model.Label, confidence float64) (model.Label, float64, bool) {
	return o.apply(o.IsReputable(text), label, confidence)
}

// ApplyWithSource is Apply with an extra reputable signal, such as the host
// the text was fetched from.
func (o *ReputableOverride) ApplyWithSource(text string, fromReputableSource bool, label model.Label, confidence float64) (model.Label, float64, bool) {
	return o.apply(fromReputableSource || o.IsReputable(text), label, confidence)
}

func (o *ReputableOverride) apply(reputable bool, label model.Label, confidence float64) (model.Label, float64, bool) {
	if o.enabled && reputable && label == model.LabelFake && confidence < o.threshold {
		return model.LabelReal, 1 - confidence, true
	}
	return label, confidence, reputable
}
