package controllers

import (
	"github.com/codigarte/codigarte/internal/pkg/billing"
	"github.com/codigarte/codigarte/internal/pkg/config"
)

var (
	appConfig      *config.Config
	billingService *billing.Service
)

// Setup injects the configuration and the billing service. Must run before
// any route is served.
func Setup(cfg *config.Config, svc *billing.Service) {
	appConfig = cfg
	billingService = svc
}
