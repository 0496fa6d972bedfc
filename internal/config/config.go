package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"time"    // time resolves the venue's IANA timezone
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in the
// application: strings for identifiers and secrets, ints for durations and
// costs, and a resolved *time.Location for the venue's local calendar.
type Config struct {
	Env                  string         // application environment (e.g. "dev", "prod")
	Port                 string         // HTTP port to listen on
	DBUser               string         // database username
	DBPass               string         // database password (optional)
	DBHost               string         // database host address
	DBPort               string         // database port number
	DBName               string         // database name
	JWTSecret            string         // secret used to sign staff access tokens
	CheckInSecret        string         // secret used to sign check-in credentials
	CheckInURL           string         // base URL embedded in issued credentials
	VenueID              string         // stable identifier of this venue
	VenueName            string         // display name of the venue
	VenueLocation        *time.Location // venue-local timezone for all date comparisons
	AccessTTLMin         int            // access token time-to-live in minutes
	RefreshTTLDays       int            // refresh token time-to-live in days
	BcryptCost           int            // bcrypt cost for password hashing
	AllowNoShowReconfirm bool           // policy: allow no_show bookings to be re-confirmed
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  The venue timezone
// is resolved eagerly so an invalid name fails at startup instead of on the
// first date comparison.
func Load() Config {
	tzName := must("VENUE_TZ") // IANA name, e.g. "Europe/London"
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		log.Fatalf("invalid VENUE_TZ %q: %v", tzName, err)
	}
	return Config{
		Env:                  must("APP_ENV"),
		Port:                 must("APP_PORT"),
		DBUser:               must("DB_USER"),
		DBPass:               os.Getenv("DB_PASS"), // empty allowed
		DBHost:               must("DB_HOST"),
		DBPort:               must("DB_PORT"),
		DBName:               must("DB_NAME"),
		JWTSecret:            must("JWT_SECRET"),
		CheckInSecret:        must("CHECKIN_TOKEN_SECRET"),
		CheckInURL:           envStr("CHECKIN_URL", "https://checkin.local/scan"),
		VenueID:              must("VENUE_ID"),
		VenueName:            envStr("VENUE_NAME", "Venue"),
		VenueLocation:        loc,
		AccessTTLMin:         mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays:       mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:           mustInt("BCRYPT_COST"),
		AllowNoShowReconfirm: envBool("ALLOW_NO_SHOW_RECONFIRM", false),
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
