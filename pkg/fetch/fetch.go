// Package fetch retrieves running configurations from RGOS devices over SSH.
package fetch

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/newtron-network/rgosc/pkg/util"
)

// DefaultCommand is executed when SSHFetcher.Command is empty.
const DefaultCommand = "show running-config"

// DefaultPort is the SSH port used when the host carries none.
const DefaultPort = 22

// SSHFetcher runs a show command on a device with password authentication.
type SSHFetcher struct {
	User     string
	Password string
	Command  string

	// Timeout bounds dialing and the SSH handshake; zero means 30s.
	Timeout time.Duration

	// HostKeyCallback defaults to accepting any key.
	HostKeyCallback ssh.HostKeyCallback
}

// Fetch dials host (host or host:port), runs the command and returns its
// output with CRLFs folded and the device banner lines removed. Cancelling
// ctx closes the connection.
func (f *SSHFetcher) Fetch(ctx context.Context, host string) (string, error) {
	addr := withPort(host)
	timeout := f.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	hostKey := f.HostKeyCallback
	if hostKey == nil {
		hostKey = ssh.InsecureIgnoreHostKey()
	}
	config := &ssh.ClientConfig{
		User: f.User,
		Auth: []ssh.AuthMethod{
			ssh.Password(f.Password),
			ssh.KeyboardInteractive(func(_, _ string, questions []string, _ []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range answers {
					answers[i] = f.Password
				}
				return answers, nil
			}),
		},
		HostKeyCallback: hostKey,
		Timeout:         timeout,
	}

	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return "", fmt.Errorf("SSH dial %s: %w", addr, err)
	}
	conn.SetDeadline(time.Now().Add(timeout))
	c, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		conn.Close()
		return "", fmt.Errorf("SSH handshake %s: %w", addr, err)
	}
	conn.SetDeadline(time.Time{})
	client := ssh.NewClient(c, chans, reqs)
	defer client.Close()

	cmd := f.Command
	if cmd == "" {
		cmd = DefaultCommand
	}

	type result struct {
		out []byte
		err error
	}
	done := make(chan result, 1)
	go func() {
		session, err := client.NewSession()
		if err != nil {
			done <- result{err: err}
			return
		}
		defer session.Close()
		out, err := session.Output(cmd)
		done <- result{out, err}
	}()

	select {
	case <-ctx.Done():
		client.Close()
		return "", fmt.Errorf("fetching %s: %w", addr, ctx.Err())
	case r := <-done:
		if r.err != nil {
			return "", fmt.Errorf("running %q on %s: %w", cmd, addr, r.err)
		}
		util.WithField("host", addr).Debugf("fetched %d bytes", len(r.out))
		return Clean(string(r.out)), nil
	}
}

// Clean folds CRLF line endings and drops the banner RGOS prints before
// the configuration body.
func Clean(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	out := lines[:0]
	for _, l := range lines {
		switch {
		case strings.HasPrefix(l, "Building configuration"),
			strings.HasPrefix(l, "Current configuration"):
			continue
		}
		out = append(out, l)
	}
	return strings.Join(out, "\n")
}

func withPort(host string) string {
	if _, _, err := net.SplitHostPort(host); err == nil {
		return host
	}
	return net.JoinHostPort(strings.Trim(host, "[]"), strconv.Itoa(DefaultPort))
}
