package config

import (
	"flag"
	"io"
	"strings"
	"time"

	"github.com/dmitrijs2005/catalogauth/internal/flagx"
)

var knownFlags = []string{"-a", "-g", "-b", "-d", "-r", "-u", "-cache", "-s", "-t", "-k", "-w", "-l", "-cors"}

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-g string   gRPC bind address (e.g., ":50051")
//	-b string   base path of the auth routes
//	-d string   PostgreSQL DSN
//	-r string   revocation backend: postgres, redis or memory
//	-u string   Redis URL
//	-cache=bool cache positive revocation hits
//	-s string   token signing secret
//	-t int      token TTL, milliseconds
//	-k int      bcrypt cost
//	-w string   sweep cron schedule
//	-l string   log level
//	-cors string comma-separated allowed CORS origins ("" disables CORS)
//
// Only these flags are looked at; anything else in args is ignored.
func parseFlags(config *Config, args []string) error {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "HTTP address and port")
	fs.StringVar(&config.GRPCAddr, "g", config.GRPCAddr, "gRPC address and port")
	fs.StringVar(&config.BasePath, "b", config.BasePath, "base path of auth routes")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.RevocationBackend, "r", config.RevocationBackend, "revocation backend")
	fs.StringVar(&config.RedisURL, "u", config.RedisURL, "redis URL")
	fs.BoolVar(&config.RevocationCache, "cache", config.RevocationCache, "cache revoked tokens in process")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "token signing secret")
	ttl := fs.Int64("t", config.TokenTTL.Milliseconds(), "token ttl (in milliseconds)")
	fs.IntVar(&config.BcryptCost, "k", config.BcryptCost, "bcrypt cost")
	fs.StringVar(&config.SweepSchedule, "w", config.SweepSchedule, "sweep schedule (cron spec)")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	origins := fs.String("cors", strings.Join(config.CORSAllowedOrigins, ","), "allowed CORS origins")

	if err := fs.Parse(flagx.FilterArgs(args, knownFlags)); err != nil {
		return err
	}

	config.TokenTTL = time.Duration(*ttl) * time.Millisecond
	config.CORSAllowedOrigins = splitList(*origins)
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
