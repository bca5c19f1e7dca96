package constants

// Static route constants
const (
	HomeRoute     = "/"
	LoginRoute    = "/login"
	RegisterRoute = "/register"
	PremiumRoute  = "/premium"
)
