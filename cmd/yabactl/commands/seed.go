package commands

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/spf13/cobra"

	"github.com/yabaapp/yaba-server/internal/domain"
	domainerrors "github.com/yabaapp/yaba-server/internal/errors"
	"github.com/yabaapp/yaba-server/internal/service"
)

// seedPayee is a demo description with its typical amount range and tags.
type seedPayee struct {
	description string
	min, max    int
	tags        []string
}

var seedPayees = []seedPayee{
	{"groceries", -120, -15, []string{"food", "supplies"}},
	{"lunch", -25, -8, []string{"food"}},
	{"coffee", -6, -2, []string{"food", "treats"}},
	{"fuel", -80, -30, []string{"car"}},
	{"rent", -1400, -900, []string{"housing"}},
	{"electricity", -150, -40, []string{"housing", "utilities"}},
	{"cinema", -30, -12, []string{"treats"}},
	{"paycheck", 1800, 2600, nil},
}

func newSeedCommand(opts *options) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert demo transactions",
		Long: `Insert randomly generated transactions with tags over the last year.
The account is registered first when it does not exist yet.

Examples:
  yabactl seed --count 200`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if count <= 0 {
				return errors.New("--count must be positive")
			}
			if opts.email == "" || opts.password == "" {
				return errors.New("--email and --password are required")
			}
			ctx := cmd.Context()

			l, err := openLedger(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer l.Close()

			owner, err := resolveOrRegister(ctx, l.auth, opts.email, opts.password)
			if err != nil {
				return err
			}

			rng := rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
			start := time.Now().UTC().AddDate(-1, 0, 0)
			for i := range count {
				p := seedPayees[rng.IntN(len(seedPayees))]
				cents := (p.min + rng.IntN(p.max-p.min+1)) * 100
				cents += rng.IntN(100)
				date := start.AddDate(0, 0, rng.IntN(365))

				txn, err := l.transactions.Create(ctx, owner.ID, service.CreateTransactionRequest{
					Description: p.description,
					Value:       fmt.Sprintf("%d.%02d", cents/100, abs(cents%100)),
					Date:        date.Format(time.DateOnly),
				})
				if err != nil {
					return fmt.Errorf("seed transaction %d: %w", i+1, err)
				}
				for _, name := range p.tags {
					if _, err := l.tags.AddTagToTransaction(ctx, owner.ID, txn.ID, name); err != nil {
						return fmt.Errorf("tag transaction %d: %w", i+1, err)
					}
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d transactions for %s\n", count, owner.Email)
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", 50, "Number of transactions to create")
	return cmd
}

// resolveOrRegister authenticates the account, registering it when the
// email is unknown.
func resolveOrRegister(ctx context.Context, auth *service.AuthService, email, password string) (*domain.User, error) {
	user, err := auth.Authenticate(ctx, email, password)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, domainerrors.ErrInvalidCredentials) {
		return nil, err
	}
	return auth.Register(ctx, service.RegisterRequest{Email: email, Password: password})
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
