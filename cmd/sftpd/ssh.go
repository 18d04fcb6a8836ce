package main

import (
	"io"
	"log/slog"
	"net"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/crypto/ssh"

	"github.com/xqyjlj/sftpd"
)

// serveSSH runs a minimal SSH server whose only job is handing the sftp
// subsystem to the engine on each authenticated session channel.
func serveSSH(addr, hostKeyPath, authorizedKeysPath string, newServer func(io.ReadWriteCloser) (*sftpd.Server, error), log *slog.Logger) error {
	if hostKeyPath == "" {
		return errors.New("--ssh-listen requires --host-key")
	}

	config, err := sshServerConfig(hostKeyPath, authorizedKeysPath)
	if err != nil {
		return err
	}

	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	log.Info("listening for ssh", "addr", l.Addr().String())

	for {
		c, err := l.Accept()
		if err != nil {
			return err
		}
		go handleSSHConn(c, config, newServer, log)
	}
}

func sshServerConfig(hostKeyPath, authorizedKeysPath string) (*ssh.ServerConfig, error) {
	authorized, err := loadAuthorizedKeys(authorizedKeysPath)
	if err != nil {
		return nil, err
	}

	config := &ssh.ServerConfig{
		PublicKeyCallback: func(conn ssh.ConnMetadata, key ssh.PublicKey) (*ssh.Permissions, error) {
			if authorized[string(key.Marshal())] {
				return &ssh.Permissions{}, nil
			}
			return nil, errors.Errorf("unknown public key for %q", conn.User())
		},
	}

	keyBytes, err := os.ReadFile(hostKeyPath)
	if err != nil {
		return nil, errors.Wrap(err, "reading host key")
	}
	hostKey, err := ssh.ParsePrivateKey(keyBytes)
	if err != nil {
		return nil, errors.Wrap(err, "parsing host key")
	}
	config.AddHostKey(hostKey)

	return config, nil
}

func loadAuthorizedKeys(path string) (map[string]bool, error) {
	if path == "" {
		return nil, errors.New("--ssh-listen requires --authorized-keys")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading authorized keys")
	}

	authorized := map[string]bool{}
	for len(data) > 0 {
		key, _, _, rest, err := ssh.ParseAuthorizedKey(data)
		if err != nil {
			return nil, errors.Wrap(err, "parsing authorized keys")
		}
		authorized[string(key.Marshal())] = true
		data = rest
	}
	return authorized, nil
}

func handleSSHConn(c net.Conn, config *ssh.ServerConfig, newServer func(io.ReadWriteCloser) (*sftpd.Server, error), log *slog.Logger) {
	defer c.Close()

	conn, chans, reqs, err := ssh.NewServerConn(c, config)
	if err != nil {
		log.Error("ssh handshake failed", "remote", c.RemoteAddr().String(), "error", err)
		return
	}
	defer conn.Close()
	go ssh.DiscardRequests(reqs)

	for newChannel := range chans {
		if newChannel.ChannelType() != "session" {
			newChannel.Reject(ssh.UnknownChannelType, "unknown channel type")
			continue
		}
		ch, requests, err := newChannel.Accept()
		if err != nil {
			log.Error("channel accept failed", "error", err)
			continue
		}
		go handleSession(ch, requests, newServer, log)
	}
}

func handleSession(ch ssh.Channel, requests <-chan *ssh.Request, newServer func(io.ReadWriteCloser) (*sftpd.Server, error), log *slog.Logger) {
	defer ch.Close()

	for req := range requests {
		var payload = struct{ Value string }{}
		ssh.Unmarshal(req.Payload, &payload)

		if req.Type != "subsystem" || payload.Value != "sftp" {
			req.Reply(false, nil)
			continue
		}
		req.Reply(true, nil)

		srv, err := newServer(ch)
		if err != nil {
			log.Error("session setup failed", "error", err)
			return
		}
		if err := srv.Serve(); err != nil {
			log.Error("sftp session ended with error", "error", err)
		}
		return
	}
}
