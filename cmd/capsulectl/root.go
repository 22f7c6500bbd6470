package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"
)

const defaultAPI = "http://localhost:8000"

// cli carries the flags shared by every subcommand.
type cli struct {
	api    string
	wallet string
	out    io.Writer
}

// NewRootCmd builds the capsulectl command tree.
func NewRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "capsulectl",
		Short:         "CLI client for the capsule marketplace API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			c.out = cmd.OutOrStdout()
		},
	}

	api := os.Getenv("CAPSULE_SERVICE_URL")
	if api == "" {
		api = defaultAPI
	}
	root.PersistentFlags().StringVarP(&c.api, "api", "a", api, "Capsule service base URL")
	root.PersistentFlags().StringVarP(&c.wallet, "wallet", "w", "", "Wallet address sent as X-Wallet-Address")

	root.AddCommand(
		c.healthCmd(),
		c.agentsCmd(),
		c.capsulesCmd(),
		c.marketplaceCmd(),
		c.walletCmd(),
	)
	return root
}

func (c *cli) client() *resty.Client {
	r := resty.New().SetBaseURL(c.api).SetTimeout(15 * time.Second)
	if c.wallet != "" {
		r.SetHeader("X-Wallet-Address", c.wallet)
	}
	return r
}

// get fetches path and pretty-prints the JSON body.
func (c *cli) get(path string, query url.Values) error {
	resp, err := c.client().R().SetQueryParamsFromValues(query).Get(path)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("http %d: %s", resp.StatusCode(), resp.String())
	}
	return c.print(resp.Body())
}

func (c *cli) print(body []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, body, "", "  "); err != nil {
		_, err = fmt.Fprintln(c.out, string(body))
		return err
	}
	_, err := fmt.Fprintln(c.out, buf.String())
	return err
}

func (c *cli) requireWallet() error {
	if c.wallet == "" {
		return fmt.Errorf("--wallet required")
	}
	return nil
}

func (c *cli) healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show service health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// /health answers 503 with a useful body when degraded.
			resp, err := c.client().R().Get("/health")
			if err != nil {
				return err
			}
			if perr := c.print(resp.Body()); perr != nil {
				return perr
			}
			if resp.IsError() {
				return fmt.Errorf("service unhealthy (http %d)", resp.StatusCode())
			}
			return nil
		},
	}
}

func (c *cli) agentsCmd() *cobra.Command {
	agents := &cobra.Command{Use: "agents", Short: "Agent operations"}
	agents.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List agents owned by --wallet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.requireWallet(); err != nil {
				return err
			}
			return c.get("/api/agents", nil)
		},
	})
	return agents
}

func (c *cli) capsulesCmd() *cobra.Command {
	capsules := &cobra.Command{Use: "capsules", Short: "Capsule operations"}
	capsules.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List capsules created by --wallet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.requireWallet(); err != nil {
				return err
			}
			return c.get("/api/capsules", nil)
		},
	})
	capsules.AddCommand(&cobra.Command{
		Use:   "get CAPSULE_ID",
		Short: "Get a capsule by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.get("/api/capsules/"+url.PathEscape(args[0]), nil)
		},
	})
	return capsules
}

func (c *cli) marketplaceCmd() *cobra.Command {
	market := &cobra.Command{Use: "marketplace", Short: "Browse the public marketplace"}

	var (
		limit, offset int
		category      string
		sortBy        string
		maxPrice      float64
	)
	browse := &cobra.Command{
		Use:   "browse",
		Short: "Browse listed capsules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q := url.Values{}
			q.Set("limit", strconv.Itoa(limit))
			q.Set("offset", strconv.Itoa(offset))
			if category != "" {
				q.Set("category", category)
			}
			if sortBy != "" {
				q.Set("sort_by", sortBy)
			}
			if cmd.Flags().Changed("max-price") {
				q.Set("max_price", strconv.FormatFloat(maxPrice, 'f', -1, 64))
			}
			return c.get("/api/marketplace", q)
		},
	}
	browse.Flags().IntVarP(&limit, "limit", "l", 50, "Page size")
	browse.Flags().IntVarP(&offset, "offset", "o", 0, "Page offset")
	browse.Flags().StringVarP(&category, "category", "c", "", "Category filter")
	browse.Flags().StringVarP(&sortBy, "sort", "s", "", "Sort order (popular, newest, price_low, price_high)")
	browse.Flags().Float64Var(&maxPrice, "max-price", 0, "Maximum price per query")
	market.AddCommand(browse)

	var trendingLimit int
	trending := &cobra.Command{
		Use:   "trending",
		Short: "Show trending capsules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.get("/api/marketplace/trending", url.Values{"limit": {strconv.Itoa(trendingLimit)}})
		},
	}
	trending.Flags().IntVarP(&trendingLimit, "limit", "l", 10, "Number of capsules")
	market.AddCommand(trending)

	market.AddCommand(&cobra.Command{
		Use:   "categories",
		Short: "List marketplace categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.get("/api/marketplace/categories", nil)
		},
	})

	var searchLimit int
	search := &cobra.Command{
		Use:   "search QUERY",
		Short: "Search listed capsules by text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] == "" {
				return fmt.Errorf("query cannot be empty")
			}
			return c.get("/api/marketplace/search", url.Values{
				"q":     {args[0]},
				"limit": {strconv.Itoa(searchLimit)},
			})
		},
	}
	search.Flags().IntVarP(&searchLimit, "limit", "l", 20, "Number of results")
	market.AddCommand(search)

	return market
}

func (c *cli) walletCmd() *cobra.Command {
	wallet := &cobra.Command{Use: "wallet", Short: "Wallet operations for --wallet"}
	wallet.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		c.out = cmd.OutOrStdout()
		return c.requireWallet()
	}

	wallet.AddCommand(&cobra.Command{
		Use:   "balance",
		Short: "Show on-chain balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.get("/api/wallet/balance", nil)
		},
	})

	var period string
	earnings := &cobra.Command{
		Use:   "earnings",
		Short: "Show capsule earnings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.get("/api/wallet/earnings", url.Values{"period": {period}})
		},
	}
	earnings.Flags().StringVarP(&period, "period", "p", "all", "Reporting period label")
	wallet.AddCommand(earnings)

	wallet.AddCommand(&cobra.Command{
		Use:   "staking",
		Short: "List stakes placed by the wallet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.get("/api/wallet/staking", nil)
		},
	})
	return wallet
}
