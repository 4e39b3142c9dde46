package detector

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/ayusman/mudra/internal/log"
)

// serviceProcess is a running mediapipe_service.py speaking the frame
// protocol over its stdin and stdout.
type serviceProcess struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader
}

func startService(python string, args []string) (*serviceProcess, error) {
	cmd := exec.Command(python, args...)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("create stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("create stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start mediapipe service: %w", err)
	}
	log.Info("started mediapipe service (pid %d)", cmd.Process.Pid)

	return &serviceProcess{
		cmd:    cmd,
		stdin:  stdin,
		stdout: bufio.NewReader(stdout),
	}, nil
}

// roundTrip sends one frame and returns the reply line.
func (p *serviceProcess) roundTrip(rows, cols, channels int, pixels []byte) ([]byte, error) {
	if err := writeFrame(p.stdin, rows, cols, channels, pixels); err != nil {
		return nil, err
	}

	line, err := p.stdout.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return line, nil
}

// stop closes stdin, which ends the service's read loop, and waits for it
// to exit.
func (p *serviceProcess) stop() error {
	p.stdin.Close()
	return p.cmd.Wait()
}
