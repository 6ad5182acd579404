package cli

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jnovack/flag"

	"github.com/slotd/slotd/internal/grouped_flags"
	"github.com/slotd/slotd/pkg/handler"
)

var Flags struct {
	HttpHost                string
	HttpPort                string
	HttpSock                string
	EnableH2C               bool
	Basepath                string
	Secret                  string
	StripPrefixSegments     int
	UploadDir               string
	FileModeString          string
	DirModeString           string
	DisableCors             bool
	CorsAllowOrigin         string
	CorsAllowMethods        string
	CorsAllowHeaders        string
	CorsMaxAge              string
	ResponseHeaders         string
	FileHooksDir            string
	HttpHooksEndpoint       string
	HttpHooksForwardHeaders string
	HttpHooksRetry          int
	HttpHooksBackoff        time.Duration
	ShowVersion             bool
	ExposeMetrics           bool
	MetricsPath             string
	ExposePprof             bool
	PprofPath               string
	PprofBlockProfileRate   int
	PprofMutexProfileRate   int
	VerboseOutput           bool
	ShowStartupLogs         bool
	LogFormat               string
	NetworkTimeout          time.Duration
	ShutdownTimeout         time.Duration
}

func ParseFlags() {
	fs := grouped_flags.NewFlagGroupSet(flag.ExitOnError)

	fs.AddGroup("Listening options", func(f *flag.FlagSet) {
		f.StringVar(&Flags.HttpHost, "host", "0.0.0.0", "Host to bind HTTP server to")
		f.StringVar(&Flags.HttpPort, "port", "5050", "Port to bind HTTP server to")
		f.StringVar(&Flags.HttpSock, "unix-sock", "", "If set, will listen to a UNIX socket at this location instead of a TCP socket")
		f.StringVar(&Flags.Basepath, "base-path", "/upload/", "Basepath under which uploads are reachable")
		f.BoolVar(&Flags.EnableH2C, "enable-h2c", false, "Allow for HTTP/2 cleartext (h2c) connections (non-encrypted)")
	})

	fs.AddGroup("Authorization options", func(f *flag.FlagSet) {
		f.StringVar(&Flags.Secret, "secret", "", "Shared secret for validating upload MACs, must match the secret configured in the XMPP server (can also be passed via the SECRET environment variable)")
		f.IntVar(&Flags.StripPrefixSegments, "strip-prefix-segments", -1, "Number of leading path segments to strip before the path enters the MAC message. The default of -1 derives the count from -base-path")
	})

	fs.AddGroup("Storage options", func(f *flag.FlagSet) {
		f.StringVar(&Flags.UploadDir, "upload-dir", "./data", "Directory to store uploads in")
		f.StringVar(&Flags.FileModeString, "file-mode", "0644", "Permission bits for stored files, in octal notation")
		f.StringVar(&Flags.DirModeString, "dir-mode", "0755", "Permission bits for created directories, in octal notation")
	})

	fs.AddGroup("Response header options", func(f *flag.FlagSet) {
		f.BoolVar(&Flags.DisableCors, "disable-cors", false, "Do not attach CORS headers to responses")
		f.StringVar(&Flags.CorsAllowOrigin, "cors-allow-origin", "*", "Value of the Access-Control-Allow-Origin header attached to every response")
		f.StringVar(&Flags.CorsAllowMethods, "cors-allow-methods", "OPTIONS, HEAD, GET, PUT", "Value of the Access-Control-Allow-Methods header attached to every response")
		f.StringVar(&Flags.CorsAllowHeaders, "cors-allow-headers", "Content-Type", "Value of the Access-Control-Allow-Headers header attached to every response")
		f.StringVar(&Flags.CorsMaxAge, "cors-max-age", "86400", "Value of the Access-Control-Max-Age header to control the cache duration of CORS responses")
		f.StringVar(&Flags.ResponseHeaders, "response-headers", "", "Additional headers attached to every response, as 'Name: Value' pairs separated by '|'")
	})

	fs.AddGroup("Hook options", func(f *flag.FlagSet) {
		f.StringVar(&Flags.FileHooksDir, "hooks-dir", "", "Directory to search for available hook scripts")
		f.StringVar(&Flags.HttpHooksEndpoint, "hooks-http", "", "An HTTP endpoint to which hook events will be sent to")
		f.StringVar(&Flags.HttpHooksForwardHeaders, "hooks-http-forward-headers", "", "List of HTTP request headers to be forwarded from the client request to the hook endpoint")
		f.IntVar(&Flags.HttpHooksRetry, "hooks-http-retry", 3, "Number of times to retry on a 500 or network timeout")
		f.DurationVar(&Flags.HttpHooksBackoff, "hooks-http-backoff", 1*time.Second, "Wait period before retrying each retry")
	})

	fs.AddGroup("Monitoring, profiling, logging options", func(f *flag.FlagSet) {
		f.BoolVar(&Flags.ExposeMetrics, "expose-metrics", true, "Expose metrics about slotd usage")
		f.StringVar(&Flags.MetricsPath, "metrics-path", "/metrics", "Path under which the metrics endpoint will be accessible")
		f.BoolVar(&Flags.ExposePprof, "expose-pprof", false, "Expose the pprof interface over HTTP for profiling slotd")
		f.StringVar(&Flags.PprofPath, "pprof-path", "/debug/pprof/", "Path under which the pprof endpoint will be accessible")
		f.IntVar(&Flags.PprofBlockProfileRate, "pprof-block-profile-rate", 0, "Fraction of goroutine blocking events that are reported in the blocking profile")
		f.IntVar(&Flags.PprofMutexProfileRate, "pprof-mutex-profile-rate", 0, "Fraction of mutex contention events that are reported in the mutex profile")
		f.BoolVar(&Flags.ShowVersion, "version", false, "Print slotd version information")
		f.BoolVar(&Flags.VerboseOutput, "verbose", true, "Enable verbose logging output")
		f.BoolVar(&Flags.ShowStartupLogs, "show-startup-logs", true, "Print details about slotd's configuration during startup")
		f.StringVar(&Flags.LogFormat, "log-format", "text", "Logging format (text or json)")
	})

	fs.AddGroup("Timeout options", func(f *flag.FlagSet) {
		f.DurationVar(&Flags.NetworkTimeout, "network-timeout", 60*time.Second, "Timeout for reading the request and writing the response. If slotd does not receive data for this duration, it will consider the connection dead")
		f.DurationVar(&Flags.ShutdownTimeout, "shutdown-timeout", 10*time.Second, "Timeout for closing connections gracefully during shutdown. After the timeout, slotd will exit regardless of any open connection")
	})

	fs.Parse()

	if Flags.StripPrefixSegments < 0 {
		Flags.StripPrefixSegments = countPathSegments(Flags.Basepath)
	}

	SetupStructuredLogger()
}

// countPathSegments returns the number of path segments in a base path, e.g.
// 2 for "/some/prefix/" and 0 for "/".
func countPathSegments(basepath string) int {
	trimmed := strings.Trim(basepath, "/")
	if trimmed == "" {
		return 0
	}
	return strings.Count(trimmed, "/") + 1
}

// fileMode parses an octal mode flag value, exiting with a usage error when
// the value is not a valid mode.
func fileMode(value string, flagName string) os.FileMode {
	mode, err := strconv.ParseUint(value, 8, 32)
	if err != nil {
		stderr.Fatalf("Invalid octal mode %q for -%s: %s", value, flagName, err)
	}
	return os.FileMode(mode)
}

// extraHeaders assembles the fixed set of headers attached to every
// response from the CORS flags and the free-form -response-headers flag.
func extraHeaders() handler.HTTPHeader {
	headers := handler.HTTPHeader{}

	if !Flags.DisableCors {
		headers["Access-Control-Allow-Origin"] = Flags.CorsAllowOrigin
		headers["Access-Control-Allow-Methods"] = Flags.CorsAllowMethods
		headers["Access-Control-Allow-Headers"] = Flags.CorsAllowHeaders
		headers["Access-Control-Max-Age"] = Flags.CorsMaxAge
	}

	if Flags.ResponseHeaders != "" {
		for _, pair := range strings.Split(Flags.ResponseHeaders, "|") {
			name, value, ok := strings.Cut(pair, ":")
			if !ok {
				stderr.Fatalf("Invalid header pair %q in -response-headers, expected 'Name: Value'", pair)
			}
			headers[strings.TrimSpace(name)] = strings.TrimSpace(value)
		}
	}

	return headers
}
