package main

import (
	"encoding/json"
	"io"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	sellout "github.com/sellout-xyz/sellout/go"
	"github.com/sellout-xyz/sellout/go/contracts/show"
	"github.com/sellout-xyz/sellout/go/evm"
	"github.com/sellout-xyz/sellout/go/http"
	"github.com/sellout-xyz/sellout/go/types"
)

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "sellout",
		Short:         "Sellout contracts from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&a.flags.envFile, "env-file", ".env", "file loaded into the environment")
	root.PersistentFlags().StringVar(&a.flags.chain, "chain", "", "chain id or network name (overrides SELLOUT_CHAIN_ID)")
	root.PersistentFlags().StringVar(&a.flags.deployments, "deployments", "", "YAML deployment table (overrides SELLOUT_DEPLOYMENTS)")

	root.AddCommand(versionCmd())
	root.AddCommand(a.networksCmd())
	root.AddCommand(a.contractsCmd())
	root.AddCommand(a.showCmd())
	root.AddCommand(a.serveCmd())
	return root
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the SDK version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := io.WriteString(cmd.OutOrStdout(), sellout.UserAgent+"\n")
			return err
		},
	}
}

func (a *app) networksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "networks",
		Short: "List supported networks and their contracts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resolver, err := a.resolver()
			if err != nil {
				return err
			}
			networks, err := types.Networks(resolver)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), networks)
		},
	}
}

func (a *app) contractsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "contracts [chain]",
		Short: "Print the contract addresses of a network",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := a.cfg.ChainID
			if len(args) == 1 {
				var err error
				if id, err = evm.ParseChainID(args[0]); err != nil {
					return err
				}
			}
			resolver, err := a.resolver()
			if err != nil {
				return err
			}
			chain, err := resolver.Resolve(id)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), types.NewNetwork(chain))
		},
	}
}

func (a *app) showCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Read and manage shows",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status <showId>",
		Short: "Print the lifecycle state of a show",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sh, err := a.show(cmd)
			if err != nil {
				return err
			}
			status, err := sh.GetShowStatus(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]string{
				"showId": args[0],
				"status": status.String(),
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "cancel <showId>",
		Short: "Cancel a show as its organizer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sh, err := a.show(cmd)
			if err != nil {
				return err
			}
			res, err := sh.CancelShow(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	})

	return cmd
}

func (a *app) show(cmd *cobra.Command) (*show.Contract, error) {
	c, err := a.client(cmd.Context())
	if err != nil {
		return nil, err
	}
	return c.Show()
}

func (a *app) serveCmd() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON gateway",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			c, err := a.client(ctx)
			if err != nil {
				return err
			}
			resolver, err := a.resolver()
			if err != nil {
				return err
			}
			if listen == "" {
				listen = a.cfg.ListenAddr
			}

			gin.SetMode(gin.ReleaseMode)
			srv := http.NewServer(c, http.WithLogger(a.logger), http.WithResolver(resolver))
			return srv.Run(ctx, listen)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (overrides SELLOUT_LISTEN_ADDR)")
	return cmd
}
