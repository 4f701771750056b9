package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	debug   bool
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "roomivo",
		Short:         "Rental marketplace backend: listings, tenant matching and applicant scoring",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "human-readable debug logging")

	root.AddCommand(seedCmd())
	root.AddCommand(importCmd())
	root.AddCommand(backfillCmd())
	root.AddCommand(matchesCmd())
	root.AddCommand(applicantsCmd())
	root.AddCommand(scoreCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(runCmd())
	root.AddCommand(secretCmd())

	return root
}

func seedCmd() *cobra.Command {
	var file, landlord string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the built-in listing dataset (or a JSON file) into the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), file, landlord)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "JSON listing file (default: built-in dataset)")
	cmd.Flags().StringVar(&landlord, "landlord", "", "landlord id to own the seeded listings (default: from config)")
	return cmd
}

func importCmd() *cobra.Command {
	var sources []string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Run listing importers once",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), sources)
		},
	}

	cmd.Flags().StringSliceVar(&sources, "source", nil, "specific sources to import (seed,rss,html)")
	return cmd
}

func backfillCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Re-classify the rental type of every stored listing",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackfill(cmd.Context(), dryRun)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report changes without writing them")
	return cmd
}

func matchesCmd() *cobra.Command {
	var (
		tenant     string
		jsonOutput bool
		minScore   int
		limit      int
		location   string
	)

	cmd := &cobra.Command{
		Use:   "matches",
		Short: "Rank listings for a tenant (anonymous when --tenant is empty)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMatches(cmd.Context(), tenant, location, minScore, limit, jsonOutput)
		},
	}

	cmd.Flags().StringVar(&tenant, "tenant", "", "tenant profile id")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	cmd.Flags().IntVar(&minScore, "min-score", -1, "minimum match score (default: from config)")
	cmd.Flags().IntVar(&limit, "limit", 0, "max listings to show (default: from config)")
	cmd.Flags().StringVar(&location, "location", "", "only listings whose location contains this")
	return cmd
}

func applicantsCmd() *cobra.Command {
	var (
		landlord   string
		status     string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "applicants",
		Short: "Rank applicants on a landlord's listings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApplicants(cmd.Context(), landlord, status, jsonOutput)
		},
	}

	cmd.Flags().StringVar(&landlord, "landlord", "", "landlord id")
	cmd.Flags().StringVar(&status, "status", "", "only applications in this status")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	_ = cmd.MarkFlagRequired("landlord")
	return cmd
}

func scoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score an ad-hoc tenant/listing pair or applicant",
	}
	cmd.AddCommand(scoreMatchCmd())
	cmd.AddCommand(scoreRiskCmd())
	return cmd
}

func scoreMatchCmd() *cobra.Command {
	var in matchInput

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Explain the match score of a tenant for a listing",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScoreMatch(cmd.OutOrStdout(), in)
		},
	}

	f := cmd.Flags()
	f.BoolVar(&in.anonymous, "anonymous", false, "score as an anonymous visitor")
	f.Float64Var(&in.budgetMax, "budget-max", 0, "tenant maximum budget")
	f.Float64Var(&in.income, "income", 0, "tenant monthly income")
	f.StringVar(&in.location, "location", "", "tenant preferred location")
	f.IntVar(&in.age, "age", 0, "tenant age")
	f.StringVar(&in.bio, "bio", "", "tenant bio")
	f.Float64Var(&in.price, "price", 0, "listing monthly price")
	f.StringVar(&in.propertyLocation, "property-location", "", "listing location")
	f.StringVar(&in.description, "description", "", "listing description")
	f.StringSliceVar(&in.amenities, "amenity", nil, "listing amenity (repeatable)")
	_ = cmd.MarkFlagRequired("price")
	return cmd
}

func scoreRiskCmd() *cobra.Command {
	var (
		income     float64
		profession string
		rent       float64
	)

	cmd := &cobra.Command{
		Use:   "risk",
		Short: "Explain the landlord risk score of an applicant",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScoreRisk(cmd.OutOrStdout(), income, profession, rent)
		},
	}

	cmd.Flags().Float64Var(&income, "income", 0, "applicant monthly income")
	cmd.Flags().StringVar(&profession, "profession", "", "applicant profession")
	cmd.Flags().Float64Var(&rent, "rent", 0, "listing monthly rent")
	_ = cmd.MarkFlagRequired("rent")
	return cmd
}

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}

func runCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start daemon with scheduler and HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}

func secretCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Manage alert secrets in the OS keyring",
	}

	var account string
	set := &cobra.Command{
		Use:   "set",
		Short: "Store a secret read from stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSecretSet(cmd.InOrStdin(), cmd.ErrOrStderr(), account)
		},
	}
	set.Flags().StringVar(&account, "account", "", "keyring account name")
	_ = set.MarkFlagRequired("account")

	var delAccount string
	del := &cobra.Command{
		Use:   "delete",
		Short: "Remove a stored secret",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSecretDelete(cmd.ErrOrStderr(), delAccount)
		},
	}
	del.Flags().StringVar(&delAccount, "account", "", "keyring account name")
	_ = del.MarkFlagRequired("account")

	cmd.AddCommand(set, del)
	return cmd
}
