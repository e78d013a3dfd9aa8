package config // package config loads application configuration from environment variables

import (
    "log"      // log is used to report configuration errors and halt execution
    "os"       // os provides access to environment variables
    "strconv"  // strconv converts strings to other types

    "github.com/joho/godotenv" // godotenv loads a local .env file when present
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints for durations and costs.
type Config struct {
    Env                string // application environment (e.g. "dev", "prod")
    Port               string // HTTP port to listen on
    DBUser             string // database username
    DBPass             string // database password (optional)
    DBHost             string // database host address
    DBPort             string // database port number
    DBName             string // database name
    JWTSecret          string // secret used to sign JWTs
    AccessTTLMin       int    // access token time‑to‑live in minutes
    RefreshTTLDays     int    // refresh token time‑to‑live in days
    ActivationTTLHrs   int    // activation token time‑to‑live in hours
    ResetTTLHrs        int    // password reset token time‑to‑live in hours
    BcryptCost         int    // bcrypt cost for password hashing
    SweepInterval      string // expired-token sweep interval as a Go duration string
    BaseURL            string // public base URL used in emailed links
    StripeSecretKey    string // Stripe API secret key
    StripeWebhookKey   string // Stripe webhook signing secret
    CheckoutSuccessURL string // redirect target after a successful checkout
    CheckoutCancelURL  string // redirect target after an abandoned checkout
}

// SMTPConfig holds mail delivery settings for the notification consumer.
// These are optional at startup: when Host is empty the consumer logs
// rendered emails instead of sending them, which keeps local development
// working without a mail server.
type SMTPConfig struct {
    Host     string
    Port     int
    Username string
    Password string
    From     string
}

// Load reads configuration values from environment variables and returns a
// Config.  A .env file is loaded first when present.  Required variables are
// enforced by must() and missing values cause the program to exit with a
// fatal log message.
func Load() Config {
    _ = godotenv.Load()
    return Config{
        Env:                must("APP_ENV"),             // environment (dev/test/prod)
        Port:               must("APP_PORT"),            // port to bind the HTTP server
        DBUser:             must("DB_USER"),             // database user
        DBPass:             os.Getenv("DB_PASS"),        // database password (empty allowed)
        DBHost:             must("DB_HOST"),             // database host
        DBPort:             must("DB_PORT"),             // database port
        DBName:             must("DB_NAME"),             // database name
        JWTSecret:          must("JWT_SECRET"),          // secret used for signing JWTs
        AccessTTLMin:       mustInt("ACCESS_TOKEN_TTL_MIN"),   // TTL for access tokens in minutes
        RefreshTTLDays:     mustInt("REFRESH_TOKEN_TTL_DAYS"), // TTL for refresh tokens in days
        ActivationTTLHrs:   envIntDefault("ACTIVATION_TOKEN_TTL_HOURS", 24),
        ResetTTLHrs:        envIntDefault("RESET_TOKEN_TTL_HOURS", 1),
        BcryptCost:         mustInt("BCRYPT_COST"),      // bcrypt cost factor
        SweepInterval:      getenv("TOKEN_SWEEP_INTERVAL", "1h"),
        BaseURL:            getenv("APP_BASE_URL", "http://localhost:8080"),
        StripeSecretKey:    os.Getenv("STRIPE_SECRET_KEY"),
        StripeWebhookKey:   os.Getenv("STRIPE_WEBHOOK_SECRET"),
        CheckoutSuccessURL: getenv("CHECKOUT_SUCCESS_URL", "http://localhost:8080/checkout/success"),
        CheckoutCancelURL:  getenv("CHECKOUT_CANCEL_URL", "http://localhost:8080/checkout/cancel"),
    }
}

// LoadSMTP reads the optional SMTP settings used by the email consumer.
func LoadSMTP() SMTPConfig {
    return SMTPConfig{
        Host:     os.Getenv("SMTP_HOST"),
        Port:     envIntDefault("SMTP_PORT", 587),
        Username: os.Getenv("SMTP_USERNAME"),
        Password: os.Getenv("SMTP_PASSWORD"),
        From:     getenv("SMTP_FROM", "no-reply@cineflow.local"),
    }
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

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
    s := must(key)
    n, err := strconv.Atoi(s)
    if err != nil {
        log.Fatalf("invalid int for %s: %q", key, s)
    }
    return n
}

// envIntDefault reads an optional integer variable, falling back to def when
// unset or malformed.
func envIntDefault(key string, def int) int {
    v := os.Getenv(key)
    if v == "" {
        return def
    }
    n, err := strconv.Atoi(v)
    if err != nil {
        return def
    }
    return n
}
