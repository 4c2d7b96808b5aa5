package config // package config loads application configuration from environment variables

import (
    "log" // log is used to report configuration errors and halt execution
    "os"  // os provides access to environment variables
    "strings"
    "time"
)

// Store drivers accepted in STORE_DRIVER.
const (
    DriverMySQL  = "mysql"
    DriverMemory = "memory"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Database settings are only required when the
// MySQL driver is selected.
type Config struct {
    Env         string // application environment (e.g. "dev", "prod")
    Port        string // HTTP port to listen on
    StoreDriver string // "mysql" or "memory"

    DBUser string // database username
    DBPass string // database password (optional)
    DBHost string // database host address
    DBPort string // database port number
    DBName string // database name

    JWTSecret       string        // secret used to sign JWTs
    AccessTTLMin    int           // access token time-to-live in minutes
    RefreshTTLDays  int           // refresh token lifetime when "remember me" is set
    SessionTTLHours int           // refresh token lifetime otherwise
    BcryptCost      int           // bcrypt cost for password hashing
    LockoutMax      int           // failed sign-ins before lockout
    LockoutDuration time.Duration // how long a lockout lasts

    UploadDir       string // directory holding profile pictures
    UploadURLPrefix string // public path prefix for uploads
    UploadMaxBytes  int64  // largest accepted picture

    RabbitURL     string // broker URL for registration events
    EventsEnabled bool   // publish and consume registration events
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
    cfg := Config{
        Env:         envStr("APP_ENV", "dev"),
        Port:        envStr("APP_PORT", "8080"),
        StoreDriver: strings.ToLower(envStr("STORE_DRIVER", DriverMySQL)),

        JWTSecret:       must("JWT_SECRET"),
        AccessTTLMin:    envInt("ACCESS_TOKEN_TTL_MIN", 15),
        RefreshTTLDays:  envInt("REFRESH_TOKEN_TTL_DAYS", 14),
        SessionTTLHours: envInt("SESSION_TOKEN_TTL_HOURS", 12),
        BcryptCost:      envInt("BCRYPT_COST", 12),
        LockoutMax:      envInt("LOCKOUT_MAX_FAILURES", 5),
        LockoutDuration: envDur("LOCKOUT_DURATION", 5*time.Minute),

        UploadDir:       envStr("UPLOAD_DIR", "uploads"),
        UploadURLPrefix: envStr("UPLOAD_URL_PREFIX", "/uploads"),
        UploadMaxBytes:  int64(envInt("UPLOAD_MAX_BYTES", 2<<20)),

        RabbitURL:     os.Getenv("RABBITMQ_URL"),
        EventsEnabled: envBool("EVENTS_ENABLED", true),
    }

    switch cfg.StoreDriver {
    case DriverMySQL:
        cfg.DBUser = must("DB_USER")      // database user
        cfg.DBPass = os.Getenv("DB_PASS") // database password (empty allowed)
        cfg.DBHost = must("DB_HOST")      // database host
        cfg.DBPort = must("DB_PORT")      // database port
        cfg.DBName = must("DB_NAME")      // database name
    case DriverMemory:
    default:
        log.Fatalf("invalid STORE_DRIVER %q (want mysql or memory)", cfg.StoreDriver)
    }
    return cfg
}

// RefreshTTL is the refresh token lifetime for remembered sign-ins.
func (c Config) RefreshTTL() time.Duration {
    return time.Duration(c.RefreshTTLDays) * 24 * time.Hour
}

// SessionTTL is the refresh token lifetime for ordinary sign-ins.
func (c Config) SessionTTL() time.Duration {
    return time.Duration(c.SessionTTLHours) * time.Hour
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}
