package constants

// Static route constants
const (
	PublicRoute    = "/"
	LoginRoute     = "/login"
	RegisterRoute  = "/register"
	DashboardRoute = "/dashboard"
	StoreRoute     = "/store"
	PurchasesRoute = "/purchases"
)
