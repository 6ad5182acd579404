// Package file provides a file-based hook implementation. A directory is
// specified, whose files will be executed for specific hook events. When the
// post-upload event is emitted, the file called post-upload will be
// executed, similar to Git hooks. If such a file does not exist, the event
// will be ignored.
// Information about the stored file and HTTP request is provided on stdin
// and in the environment variables.
package file

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"

	"github.com/slotd/slotd/pkg/hooks"
)

type FileHook struct {
	Directory string
}

func (FileHook) Setup() error {
	return nil
}

func (h FileHook) InvokeHook(req hooks.HookRequest) error {
	hookPath := h.Directory + string(os.PathSeparator) + string(req.Type)
	cmd := exec.Command(hookPath)
	env := os.Environ()
	env = append(env, "SLOT_PATH="+req.Event.Upload.Path)
	env = append(env, "SLOT_SIZE="+strconv.FormatInt(req.Event.Upload.Size, 10))

	jsonReq, err := json.Marshal(req)
	if err != nil {
		return err
	}

	cmd.Stdin = bytes.NewReader(jsonReq)

	cmd.Env = env
	cmd.Dir = h.Directory
	cmd.Stderr = os.Stderr

	output, err := cmd.Output()

	// Ignore the error if the hook's file could not be found. This usually
	// means that the user is only using a subset of the available hooks.
	if os.IsNotExist(err) {
		return nil
	}

	// Report an error if the exit code was non-zero
	if err, ok := err.(*exec.ExitError); ok {
		return fmt.Errorf("unexpected exit code %d from hook script: %s", err.ProcessState.ExitCode(), string(output))
	}

	return err
}
