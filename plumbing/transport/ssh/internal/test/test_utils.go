package test

import (
	"bytes"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"strings"
	"sync"

	"github.com/gliderlabs/ssh"
)

// HandlerSSH returns a gliderlabs handler that executes the requested
// git service binary against the path carried in the ssh command, wiring
// the session's streams to the subprocess. logf receives diagnostics the
// way testing.T.Logf does.
func HandlerSSH(logf func(format string, args ...interface{})) func(s ssh.Session) {
	return func(s ssh.Session) {
		cmd, stdin, stderr, stdout, err := buildCommand(s.Command())
		if err != nil {
			logf("build command: %s", err)
			return
		}

		if err := cmd.Start(); err != nil {
			logf("start command: %s", err)
			return
		}

		go func() {
			defer stdin.Close()
			io.Copy(stdin, s)
		}()

		var wg sync.WaitGroup
		wg.Add(2)

		// Tee stderr
		var stderrBuf bytes.Buffer
		defer func() {
			if stderrBuf.Len() > 0 {
				logf("stderr: %s", stderrBuf.String())
			}
		}()

		go func() {
			defer wg.Done()
			tee := io.TeeReader(stderr, &stderrBuf)
			io.Copy(s.Stderr(), tee)
		}()

		go func() {
			defer wg.Done()
			io.Copy(s, stdout)
		}()

		wg.Wait()

		if err := cmd.Wait(); err != nil {
			logf("command failed: %s", err)
			return
		}
	}
}

func buildCommand(c []string) (cmd *exec.Cmd, stdin io.WriteCloser, stderr, stdout io.ReadCloser, err error) {
	if len(c) != 2 {
		err = fmt.Errorf("invalid command")
		return
	}

	// fix for Windows environments
	var path string
	if runtime.GOOS == "windows" {
		path = strings.Replace(c[1], "/C:/", "C:/", 1)
	} else {
		path = c[1]
	}

	cmd = exec.Command(c[0], path)
	stdout, err = cmd.StdoutPipe()
	if err != nil {
		return
	}

	stdin, err = cmd.StdinPipe()
	if err != nil {
		return
	}

	stderr, err = cmd.StderrPipe()
	if err != nil {
		return
	}

	return
}
