package backend

import (
	"fmt"

	"arbdash/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}
	mode := FetchMode(appConfig.SheetsFetchMode)
	if !mode.IsValid() {
		return Config{}, fmt.Errorf("invalid fetch mode in config: %s", appConfig.SheetsFetchMode)
	}

	return Config{
		Type: backendType,

		SQLiteDBPath: appConfig.SQLiteDBPath,

		RedisAddr:     appConfig.RedisAddr,
		RedisPassword: appConfig.RedisPassword,
		RedisDB:       appConfig.RedisDB,
		RedisPrefix:   appConfig.RedisPrefix,

		DataDirectory: appConfig.DataDirectory,

		FetchMode:    mode,
		BaseURL:      appConfig.SheetsBaseURL,
		FixturesDir:  appConfig.SheetsFixturesDir,
		FetchTimeout: appConfig.FetchTimeout,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if !c.FetchMode.IsValid() {
		return fmt.Errorf("invalid fetch mode: %s", c.FetchMode)
	}

	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
	case RedisBackend:
		if c.RedisAddr == "" {
			return fmt.Errorf("Redis address is required for redis backend")
		}
	case MemoryBackend:
		// DataDirectory defaults to "data" if empty
	}

	if c.FetchMode == FetchFile && c.FixturesDir == "" {
		return fmt.Errorf("fixtures directory is required for file fetch mode")
	}
	return nil
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{SQLiteBackend, RedisBackend, MemoryBackend}
}

// GetBackendTypeStrings returns all valid backend type strings
func GetBackendTypeStrings() []string {
	types := GetBackendTypes()
	strings := make([]string, len(types))
	for i, t := range types {
		strings[i] = t.String()
	}
	return strings
}
