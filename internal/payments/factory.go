package payments

import (
	"fmt"

	"github.com/BEASTY2K3/marathon-registration/config"
	"github.com/BEASTY2K3/marathon-registration/internal/payments/razorpay"
	"github.com/BEASTY2K3/marathon-registration/internal/payments/stub"
)

func NewProvider(cfg config.PaymentConfig) (Provider, error) {
	switch cfg.Provider {
	case "razorpay":
		if cfg.KeyID == "" || cfg.KeySecret == "" {
			return nil, fmt.Errorf("razorpay provider needs RAZORPAY_KEY_ID and RAZORPAY_KEY_SECRET")
		}
		return razorpay.New(cfg.KeyID, cfg.KeySecret, cfg.BaseURL), nil
	case "stub":
		return stub.New(cfg.KeyID), nil
	default:
		return nil, fmt.Errorf("unknown payment provider: %s", cfg.Provider)
	}
}
