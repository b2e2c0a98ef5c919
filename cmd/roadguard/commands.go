package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"roadguard/cmd"
	"roadguard/cmd/roadguard/processor"
	"roadguard/cmd/roadguard/qr"
)

func newSetupCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Configure this host as the VPN server",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			p, err := a.processor(c)
			if err != nil {
				return err
			}
			ctx, stop := a.context(c)
			defer stop()

			if err := p.Setup(ctx); err != nil {
				return err
			}
			fmt.Fprintf(c.OutOrStdout(), "server configured: %s\n", p.Settings().ServerConfPath())
			return nil
		},
	}
}

func newAddClientCmd(a *app) *cobra.Command {
	c := &cobra.Command{
		Use:   "add-client",
		Short: "Create a client config and register the client on the running tunnel",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			p, err := a.processor(c)
			if err != nil {
				return err
			}
			ctx, stop := a.context(c)
			defer stop()

			res, err := p.AddClient(ctx, processor.AddClientRequest{
				Endpoint: a.v.GetString("endpoint"),
				Name:     a.v.GetString("name"),
			})
			if err != nil {
				return err
			}

			out := c.OutOrStdout()
			fmt.Fprintf(out, "client %s: %s, config written to %s\n", res.Name, res.Address, res.ConfPath)
			if res.QRPath != "" {
				block, err := qr.Terminal(res.Conf)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "qr code written to %s\n%s", res.QRPath, block)
			}
			return nil
		},
	}

	f := c.Flags()
	f.StringP("endpoint", "e", "", "host name or address clients reach the server on")
	f.StringP("name", "n", "", "client name (prompted for when empty)")
	f.Bool("qr", false, "also write the client config as a QR code")
	f.Bool("stun", false, "discover the endpoint over STUN when --endpoint is empty")
	f.StringSlice("stun-server", nil, "STUN servers used with --stun")
	_ = a.v.BindPFlags(f)
	return c
}

func newRemoveClientCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove-client NAME",
		Short: "Not supported: peers are never removed by roadguard",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			p, err := a.processor(c)
			if err != nil {
				return err
			}
			return p.RemoveClient(c.Context(), args[0])
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(c *cobra.Command, _ []string) {
			fmt.Fprint(c.OutOrStdout(), cmd.BuildVersionOutput("roadguard"))
		},
	}
}
