package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/gophplaces/internal/flagx"
)

var knownFlags = []string{"-a", "-d", "-s", "-t", "-u", "-p", "-b", "-g", "-e", "-w", "-l", "-k", "-o", "-m", "-f"}

// parseFlags populates Config fields from command-line flags.
//
//	-a string   HTTP bind address (e.g. ":5000")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t int      access token validity, minutes
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint
//	-w string   public base URL for stored images
//	-l string   geocoding base URL
//	-k string   geocoding API key
//	-o int      external call timeout, seconds
//	-m int      max image size, bytes
//	-f string   log file
//
// Only the flags above are parsed; anything else on the command line
// (e.g. -c) is filtered out by flagx.FilterArgs first.
func parseFlags(config *Config, args []string) {
	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	accessTokenValidity := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.S3PublicBaseURL, "w", config.S3PublicBaseURL, "public base URL for images")

	fs.StringVar(&config.GeocodingBaseURL, "l", config.GeocodingBaseURL, "geocoding base URL")
	fs.StringVar(&config.GeocodingAPIKey, "k", config.GeocodingAPIKey, "geocoding API key")

	externalTimeout := fs.Int("o", int(config.ExternalCallTimeout.Seconds()), "external call timeout (in seconds)")
	fs.Int64Var(&config.MaxImageSize, "m", config.MaxImageSize, "max image size (in bytes)")
	fs.StringVar(&config.LogFile, "f", config.LogFile, "log file")

	if err := fs.Parse(flagx.FilterArgs(args, knownFlags)); err != nil {
		panic(err)
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenValidity) * time.Minute
	config.ExternalCallTimeout = time.Duration(*externalTimeout) * time.Second
}
