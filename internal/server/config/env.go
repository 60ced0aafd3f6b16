package config

// lookupFunc matches os.LookupEnv.
type lookupFunc func(key string) (string, bool)

// parseEnv overlays config with the environment variables the service has
// always honoured. PORT is a bare port number and binds all interfaces.
func parseEnv(config *Config, lookup lookupFunc) {
	if v, ok := lookup("PORT"); ok && v != "" {
		config.EndpointAddrHTTP = ":" + v
	}
	if v, ok := lookup("JWT_SECRET"); ok && v != "" {
		config.SecretKey = v
	}
	if v, ok := lookup("GEMINI_API_KEY"); ok && v != "" {
		config.GenerationAPIKey = v
	}
	if v, ok := lookup("DATABASE_DSN"); ok && v != "" {
		config.DatabaseDSN = v
	}
	if v, ok := lookup("STORE_BACKEND"); ok && v != "" {
		config.StoreBackend = v
	}
	if v, ok := lookup("LOG_BACKEND"); ok && v != "" {
		config.LogBackend = v
	}
}
