// internal/app/bootstrap/appconfig.go
package bootstrap

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like HTTP/HTTPS
// ports, TLS, logging level and format, and request body size limits.
// AppConfig is where everything specific to DocuChat lives.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max connection pool size
	MongoMinPoolSize uint64 // Min connection pool size

	// Session management configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionName   string // Cookie name for sessions (default: docuchat-session)
	SessionDomain string // Cookie domain (blank means current host)

	// RAG backend configuration
	RAGBaseURL string // Base URL of the retrieval/answer service (e.g., http://localhost:8001)

	// Google OAuth configuration
	GoogleClientID     string // OAuth2 client ID (blank disables Google sign-in)
	GoogleClientSecret string // OAuth2 client secret

	// Base URL for OAuth callbacks and absolute links
	BaseURL string // e.g., "https://docuchat.example.com" or "http://localhost:3000"
}
