package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/tenantgov/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   gRPC bind address (e.g., ":50051")
//	-m string   metrics bind address
//	-d string   PostgreSQL DSN
//	-e string   password encoding (plain, sha1, md5, bcrypt, argon2id, ...)
//	-q int      number of prior passwords that may not be reused
//	-l int      storage budget of the password history
//	-w int      backfill worker pool size
//	-r string   reverse geocoder base URL
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket for backfill summaries
//	-g string   S3 region
//	-s string   S3 base endpoint
//	-k string   admin token secret
//	-j string   Pushgateway URL for backfill metrics
//
// Durations are only configurable through the config file.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-m", "-d", "-e", "-q", "-l", "-w", "-r", "-u", "-p", "-b", "-g", "-s", "-k", "-j"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "address and port to run server")
	fs.StringVar(&config.MetricsAddr, "m", config.MetricsAddr, "address and port of the metrics listener")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.Password.Encoding, "e", config.Password.Encoding, "password encoding")
	fs.IntVar(&config.Password.RequiredUnique, "q", config.Password.RequiredUnique, "required unique passwords")
	fs.IntVar(&config.LastPasswordsMaxLength, "l", config.LastPasswordsMaxLength, "password history storage length")
	fs.IntVar(&config.BackfillPoolSize, "w", config.BackfillPoolSize, "backfill worker pool size")
	fs.StringVar(&config.Geocoder.URL, "r", config.Geocoder.URL, "reverse geocoder base URL")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "s", config.S3BaseEndpoint, "S3 base endpoint")

	fs.StringVar(&config.AdminTokenSecret, "k", config.AdminTokenSecret, "admin token secret")
	fs.StringVar(&config.PushGatewayURL, "j", config.PushGatewayURL, "Pushgateway URL")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
