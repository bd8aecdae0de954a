package config

import (
	"fmt"
	"strings"

	"github.com/codigarte/codigarte/internal/pkg/env"
)

// Stripe groups the payment gateway credentials and the price references for
// the purchasable products. SecretKey is mandatory; price IDs may be missing
// and are validated per operation so a single unconfigured product does not
// take the whole shop down.
type Stripe struct {
	SecretKey     string
	PublicKey     string
	WebhookSecret string

	PriceSubscription string
	PriceLives1       string
	PriceLives3       string
	PriceLives5       string
}

// PriceForLives returns the configured price ID for a lives package size.
func (s Stripe) PriceForLives(quantity int) (string, error) {
	var id string
	switch quantity {
	case 1:
		id = s.PriceLives1
	case 3:
		id = s.PriceLives3
	case 5:
		id = s.PriceLives5
	default:
		return "", fmt.Errorf("invalid lives package size: %d", quantity)
	}
	if id == "" {
		return "", fmt.Errorf("price for lives_%d package is not configured", quantity)
	}
	return id, nil
}

// Config is the application configuration, built once at startup and injected
// into the services that need it. There is no package-level mutable state.
type Config struct {
	AppHost string
	AppPort string
	BaseURL string

	Stripe Stripe
}

// Load reads the configuration from the environment. It fails when the Stripe
// secret key is absent because nothing payment-related can work without it.
func Load() (*Config, error) {
	secretKey := strings.TrimSpace(env.GetEnv("STRIPE_SECRET_KEY", ""))
	if secretKey == "" {
		return nil, fmt.Errorf("STRIPE_SECRET_KEY is not configured")
	}

	cfg := &Config{
		AppHost: env.GetEnv("APP_HOST", "localhost"),
		AppPort: env.GetEnv("APP_PORT", "4000"),
		BaseURL: strings.TrimRight(env.GetEnv("APP_BASE_URL", "http://localhost:4000"), "/"),
		Stripe: Stripe{
			SecretKey:         secretKey,
			PublicKey:         env.GetEnv("STRIPE_PUBLIC_KEY", ""),
			WebhookSecret:     env.GetEnv("STRIPE_WEBHOOK_SECRET", ""),
			PriceSubscription: env.GetEnv("STRIPE_PRICE_SUBSCRIPTION", ""),
			PriceLives1:       env.GetEnv("STRIPE_PRICE_LIVES_1", ""),
			PriceLives3:       env.GetEnv("STRIPE_PRICE_LIVES_3", ""),
			PriceLives5:       env.GetEnv("STRIPE_PRICE_LIVES_5", ""),
		},
	}
	return cfg, nil
}
