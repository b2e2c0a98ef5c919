package main

import (
	"context"
	"fmt"
	"math"
	"net/netip"
	"strings"

	"github.com/bombsimon/logrusr/v4"
	"github.com/go-logr/logr"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"roadguard/cmd"
	dbusclient "roadguard/cmd/roadguard/dbus_client"
	"roadguard/cmd/roadguard/executor"
	"roadguard/cmd/roadguard/keys"
	"roadguard/cmd/roadguard/livepeers"
	"roadguard/cmd/roadguard/netinspect"
	"roadguard/cmd/roadguard/processor"
	"roadguard/cmd/roadguard/qr"
	"roadguard/cmd/roadguard/sysconf"
	"roadguard/cmd/roadguard/terminator"
	"roadguard/models"
)

const appName = "roadguard"

type app struct {
	v      *viper.Viper
	logger logr.Logger
}

// newRootCmd builds a fresh command tree with its own viper instance so tests
// can run commands in isolation.
func newRootCmd() *cobra.Command {
	root, _ := buildRootCmd()
	return root
}

func buildRootCmd() (*cobra.Command, *app) {
	a := &app{v: viper.New(), logger: logr.Discard()}

	root := &cobra.Command{
		Use:           appName,
		Short:         "Set up a road-warrior WireGuard VPN",
		Long:          "roadguard provisions one WireGuard server and the roaming clients that connect to it.\nKeys and the tunnel itself are handled by wireguard-tools.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(c *cobra.Command, _ []string) error {
			return a.init(c)
		},
	}

	pf := root.PersistentFlags()
	pf.String("conf", cmd.DefaultConfName, "toml config file")
	pf.String("ip", processor.DefaultServerAddress.String(), "server tunnel address; its /24 is the client subnet")
	pf.String("interface", processor.DefaultInterfaceName, "tunnel interface name")
	pf.Uint16("port", models.DefaultListenPort, "server listen port")
	pf.String("dns", models.DefaultDNS.String(), "DNS resolver handed to clients")
	pf.String("wg", keys.DefaultWgBinary, "wg binary")
	pf.String("wireguard-dir", processor.DefaultWireguardDir, "directory of the server config")
	pf.String("sysctl-file", sysconf.DefaultSysctlFile, "sysctl file enabling IPv4 forwarding")
	pf.String("key-dir", ".", "directory of server_private_key and server_public_key")
	pf.String("client-dir", ".", "directory client configs are written to")
	pf.String("lock-dir", "", "directory of the add-client lock file (default --wireguard-dir)")
	pf.Bool("native", false, "use netlink and wgctrl instead of the ip and wg commands")
	pf.Bool("dbus", false, "enable the service through systemd over D-Bus instead of systemctl")
	pf.BoolP("verbose", "v", false, "log every external command")
	_ = a.v.BindPFlags(pf)

	a.v.SetEnvPrefix(cmd.EnvPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	root.AddCommand(
		newSetupCmd(a),
		newAddClientCmd(a),
		newRemoveClientCmd(a),
		newVersionCmd(),
	)
	return root, a
}

// init reads the toml file and the logger settings. Values from the file
// become defaults, so flags and env still take precedence.
func (a *app) init(c *cobra.Command) error {
	confPath := a.v.GetString("conf")
	conf, err := cmd.LoadConf(confPath, c.Flags().Changed("conf"))
	if err != nil {
		return err
	}
	a.applyConf(conf)

	l := logrus.New()
	l.SetOutput(c.ErrOrStderr())
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	if a.v.GetBool("verbose") {
		l.SetLevel(logrus.DebugLevel)
	}
	a.logger = logrusr.New(l)
	return nil
}

func (a *app) applyConf(conf models.RoadguardConf) {
	setString := func(key, val string) {
		if val != "" {
			a.v.SetDefault(key, val)
		}
	}
	setString("ip", conf.Server.Address)
	setString("interface", conf.Server.InterfaceName)
	setString("dns", conf.Server.DNS)
	setString("wg", conf.Paths.WgBinary)
	setString("wireguard-dir", conf.Paths.WireguardDir)
	setString("sysctl-file", conf.Paths.SysctlFile)
	setString("key-dir", conf.Paths.KeyDir)
	setString("client-dir", conf.Paths.ClientDir)
	setString("lock-dir", conf.Paths.LockDir)
	setString("endpoint", conf.Client.Endpoint)
	if conf.Server.ListenPort != 0 {
		a.v.SetDefault("port", conf.Server.ListenPort)
	}
	if conf.Server.Native {
		a.v.SetDefault("native", true)
	}
	if conf.Server.Dbus {
		a.v.SetDefault("dbus", true)
	}
	if conf.Client.GenerateQR {
		a.v.SetDefault("qr", true)
	}
	if len(conf.Client.StunServers) > 0 {
		a.v.SetDefault("stun-server", conf.Client.StunServers)
	}
}

func (a *app) settings() (processor.Settings, error) {
	s := processor.DefaultSettings()

	addr, err := parseServerAddress(a.v.GetString("ip"))
	if err != nil {
		return s, err
	}
	s.ServerAddress = addr

	dns, err := netip.ParseAddr(strings.TrimSpace(a.v.GetString("dns")))
	if err != nil {
		return s, fmt.Errorf("%w: invalid dns: %w", models.ErrValidation, err)
	}
	s.DNS = dns

	s.InterfaceName = a.v.GetString("interface")
	port := a.v.GetUint("port")
	if port > math.MaxUint16 {
		return s, fmt.Errorf("%w: invalid port %d", models.ErrValidation, port)
	}
	s.ListenPort = uint16(port)
	s.WireguardDir = a.v.GetString("wireguard-dir")
	s.KeyDir = a.v.GetString("key-dir")
	s.ClientDir = a.v.GetString("client-dir")
	s.LockDir = a.v.GetString("lock-dir")
	s.GenerateQR = a.v.GetBool("qr")
	s.UseSTUN = a.v.GetBool("stun")
	s.StunServers = a.v.GetStringSlice("stun-server")
	return s, s.Validate()
}

// parseServerAddress accepts "10.253.3.1" as well as "10.253.3.1/24".
func parseServerAddress(raw string) (netip.Prefix, error) {
	raw = strings.TrimSpace(raw)
	if strings.Contains(raw, "/") {
		p, err := netip.ParsePrefix(raw)
		if err != nil {
			return netip.Prefix{}, fmt.Errorf("%w: invalid server address: %w", models.ErrValidation, err)
		}
		return p, nil
	}
	addr, err := netip.ParseAddr(raw)
	if err != nil {
		return netip.Prefix{}, fmt.Errorf("%w: invalid server address: %w", models.ErrValidation, err)
	}
	return netip.PrefixFrom(addr, 24), nil
}

func (a *app) processor(c *cobra.Command) (*processor.Processor, error) {
	s, err := a.settings()
	if err != nil {
		return nil, err
	}

	runner := executor.NewOSRunner(a.logger)
	wgBin := a.v.GetString("wg")

	var inspector netinspect.Inspector = netinspect.NewRouteInspector(runner)
	var peers livepeers.Table = livepeers.NewWgTable(runner, wgBin, s.InterfaceName)
	if a.v.GetBool("native") {
		inspector = netinspect.NewNetlinkInspector()
		peers = livepeers.NewWgctrlTable(s.InterfaceName)
	}

	var enabler sysconf.ServiceEnabler = sysconf.NewSystemctlEnabler(runner)
	if a.v.GetBool("dbus") {
		enabler = dbusclient.NewSystemdManager(a.logger)
	}

	deps := processor.Deps{
		Keys:      keys.New(runner, keys.WithWgBinary(wgBin), keys.WithLogger(a.logger)),
		Inspector: inspector,
		Peers:     peers,
		System: sysconf.New(runner, enabler, peers,
			sysconf.WithSysctlFile(a.v.GetString("sysctl-file")),
			sysconf.WithLogger(a.logger)),
		Prompter: processor.NewLinePrompter(c.InOrStdin(), c.ErrOrStderr()),
	}
	return processor.New(deps, s,
		processor.WithLogger(a.logger),
		processor.WithQRWriter(qr.WritePNG))
}

func (a *app) context(c *cobra.Command) (context.Context, context.CancelFunc) {
	parent := c.Context()
	if parent == nil {
		parent = context.Background()
	}
	return terminator.WithSignals(parent, a.logger)
}
