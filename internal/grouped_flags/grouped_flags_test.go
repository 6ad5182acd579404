package grouped_flags

import (
	"bytes"
	"os"
	"testing"

	"github.com/jnovack/flag"
	"github.com/stretchr/testify/assert"
)

func TestFlagGroupSet(t *testing.T) {
	a := assert.New(t)

	oldArgs := os.Args
	os.Args = []string{"slotd", "-host", "127.0.0.1"}
	defer func() { os.Args = oldArgs }()

	// Values can also be passed through correspondingly named environment
	// variables, unless the flag is set on the command line.
	t.Setenv("HOST", "ignored")
	t.Setenv("PORT", "8080")
	t.Setenv("SECRET", "")

	fs := NewFlagGroupSet(flag.ContinueOnError)

	var host, port, secret string
	fs.AddGroup("Listening options", func(f *flag.FlagSet) {
		f.StringVar(&host, "host", "0.0.0.0", "Host to bind HTTP server to")
		f.StringVar(&port, "port", "5050", "Port to bind HTTP server to")
	})
	fs.AddGroup("Authorization options", func(f *flag.FlagSet) {
		f.StringVar(&secret, "secret", "", "Shared secret for validating upload MACs")
	})

	a.NoError(fs.Parse())

	a.Equal("127.0.0.1", host)
	a.Equal("8080", port)
	a.Equal("", secret)

	var buf bytes.Buffer
	fs.SetOutput(&buf)
	fs.Usage()

	usage := buf.String()
	a.Contains(usage, "Listening options:")
	a.Contains(usage, "Authorization options:")
	a.Contains(usage, "-secret")
}
