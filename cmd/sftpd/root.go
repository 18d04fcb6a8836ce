package main

import (
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sys/unix"

	"github.com/xqyjlj/sftpd"
	"github.com/xqyjlj/sftpd/internal/logger"
	"github.com/xqyjlj/sftpd/localfs"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "sftpd",
	Short: "SFTP server speaking protocol versions 3 through 6",
	Long: `sftpd serves the SSH File Transfer Protocol, versions 3 through 6, over a
pre-authenticated byte stream. By default it speaks on stdin/stdout, for use
as an SSH daemon subsystem (Subsystem sftp /usr/lib/sftpd). With --listen it
accepts raw TCP connections; with --ssh-listen it runs its own SSH server
around the subsystem.

Not intended for interactive use.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "sftpd:", err)
	}
	return err
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&cfgFile, "config", "", "config file (optional)")
	f.BoolP("readonly", "R", false, "reject every modifying request")
	f.Bool("reverse-symlink", false, "expect openssh argument order for v3 SSH_FXP_SYMLINK")
	f.BoolP("debug", "d", false, "verbose packet tracing to stderr")
	f.String("log-level", "info", "log level: debug, info, warn, error")
	f.Int("workers", 4, "size of the request worker pool")
	f.String("root", "", "directory to resolve relative paths against")
	f.StringP("listen", "L", "", "serve raw SFTP on this TCP address instead of stdio")
	f.String("ssh-listen", "", "serve the sftp subsystem over SSH on this TCP address")
	f.String("host-key", "", "SSH host key file (required with --ssh-listen)")
	f.String("authorized-keys", "", "authorized_keys file accepted by --ssh-listen")

	viper.SetEnvPrefix("SFTPD")
	viper.AutomaticEnv()
	for _, name := range []string{
		"readonly", "reverse-symlink", "debug", "log-level", "workers",
		"root", "listen", "ssh-listen", "host-key", "authorized-keys",
	} {
		viper.BindPFlag(name, f.Lookup(name))
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return err
		}
	}

	// A lost peer must surface as EPIPE on the write, not kill the process
	// before the error can be reported.
	signal.Ignore(syscall.SIGPIPE)

	// draft-13 s7.6: the server SHOULD NOT apply a umask to the mode bits.
	unix.Umask(0)

	level := logger.ParseLevel(viper.GetString("log-level"))
	if viper.GetBool("debug") {
		level = slog.LevelDebug
	}
	log := logger.New(os.Stderr, level)

	backend := localfs.New(viper.GetString("root"))

	var opts []sftpd.ServerOption
	opts = append(opts,
		sftpd.WithLogger(log),
		sftpd.WithWorkerCount(viper.GetInt("workers")),
	)
	if viper.GetBool("readonly") {
		opts = append(opts, sftpd.ReadOnly())
	}
	if viper.GetBool("reverse-symlink") {
		opts = append(opts, sftpd.ReverseSymlink())
	}

	newServer := func(rwc io.ReadWriteCloser) (*sftpd.Server, error) {
		return sftpd.NewServer(rwc, backend, opts...)
	}

	if addr := viper.GetString("ssh-listen"); addr != "" {
		return serveSSH(addr, viper.GetString("host-key"), viper.GetString("authorized-keys"), newServer, log)
	}
	if addr := viper.GetString("listen"); addr != "" {
		return serveTCP(addr, newServer, log)
	}

	srv, err := newServer(stdioConn{os.Stdin, os.Stdout})
	if err != nil {
		return err
	}
	return srv.Serve()
}

// stdioConn glues stdin/stdout into the ReadWriteCloser the engine wants.
type stdioConn struct {
	io.Reader
	io.Writer
}

func (stdioConn) Close() error { return nil }

func serveTCP(addr string, newServer func(io.ReadWriteCloser) (*sftpd.Server, error), log *slog.Logger) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	log.Info("listening", "addr", l.Addr().String())

	for {
		c, err := l.Accept()
		if err != nil {
			return err
		}
		go func() {
			defer c.Close()
			srv, err := newServer(c)
			if err != nil {
				log.Error("session setup failed", "error", err)
				return
			}
			if err := srv.Serve(); err != nil {
				log.Error("session ended with error", "remote", c.RemoteAddr().String(), "error", err)
			}
		}()
	}
}
