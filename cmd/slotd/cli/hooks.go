package cli

import (
	"strings"

	"github.com/slotd/slotd/pkg/hooks"
	hooksFile "github.com/slotd/slotd/pkg/hooks/file"
	hooksHttp "github.com/slotd/slotd/pkg/hooks/http"
)

// getHookHandler returns the hook backend selected by the flags, or nil when
// notifications are not configured.
func getHookHandler() hooks.HookHandler {
	switch {
	case Flags.FileHooksDir != "":
		stdout.Printf("Using %s for hooks", Flags.FileHooksDir)

		return hooksFile.FileHook{
			Directory: Flags.FileHooksDir,
		}
	case Flags.HttpHooksEndpoint != "":
		stdout.Printf("Using %s as the endpoint for hooks", Flags.HttpHooksEndpoint)

		var forwardHeaders []string
		if Flags.HttpHooksForwardHeaders != "" {
			for _, name := range strings.Split(Flags.HttpHooksForwardHeaders, ",") {
				forwardHeaders = append(forwardHeaders, strings.TrimSpace(name))
			}
		}

		return &hooksHttp.HttpHook{
			Endpoint:       Flags.HttpHooksEndpoint,
			MaxRetries:     Flags.HttpHooksRetry,
			Backoff:        Flags.HttpHooksBackoff,
			ForwardHeaders: forwardHeaders,
		}
	default:
		return nil
	}
}
