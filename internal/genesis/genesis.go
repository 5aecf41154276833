// Package genesis describes the initial state of a market: its owner, the
// roles granted at launch and the opening wallet balances.
//
// Genesis files are CUE (JSON is accepted as a subset) and are validated
// against an embedded schema before anything is written.
package genesis

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/bazaar/internal/engine"
	"github.com/roach88/bazaar/internal/market"
	"github.com/roach88/bazaar/internal/payload"
	"github.com/roach88/bazaar/internal/safemath"
	"github.com/roach88/bazaar/internal/store"
	"github.com/roach88/bazaar/internal/wallet"
)

//go:embed schema.cue
var schemaSource string

// Genesis is a decoded genesis file.
type Genesis struct {
	Owner          string            `json:"owner"`
	Administrators []string          `json:"administrators,omitempty"`
	StoreOwners    []string          `json:"store_owners,omitempty"`
	Accounts       map[string]string `json:"accounts,omitempty"`
}

// Load reads and validates the genesis file at path.
func Load(path string) (*Genesis, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read genesis: %w", err)
	}
	return Parse(path, src)
}

// Parse validates src against the genesis schema and decodes it.
func Parse(filename string, src []byte) (*Genesis, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile genesis schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Genesis"))

	value := ctx.CompileBytes(src, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("parse genesis %s: %w", filename, err)
	}

	unified := def.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("invalid genesis %s: %w", filename, err)
	}

	var g Genesis
	if err := unified.Decode(&g); err != nil {
		return nil, fmt.Errorf("decode genesis %s: %w", filename, err)
	}
	if err := g.check(); err != nil {
		return nil, fmt.Errorf("invalid genesis %s: %w", filename, err)
	}
	return &g, nil
}

// check enforces what the schema cannot express.
func (g *Genesis) check() error {
	if len(g.StoreOwners) > 0 && len(g.Administrators) == 0 {
		return errors.New("store_owners requires at least one administrator")
	}
	for p, amount := range g.Accounts {
		if _, err := safemath.ParseDecimal(amount); err != nil {
			return fmt.Errorf("account %s: %w", p, err)
		}
	}
	return nil
}

// WalletAccounts returns the opening balances, sorted by principal.
func (g *Genesis) WalletAccounts() ([]wallet.Account, error) {
	out := make([]wallet.Account, 0, len(g.Accounts))
	for p, amount := range g.Accounts {
		v, err := safemath.ParseDecimal(amount)
		if err != nil {
			return nil, fmt.Errorf("account %s: %w", p, err)
		}
		out = append(out, wallet.Account{Principal: market.Principal(p), Balance: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Principal < out[j].Principal })
	return out, nil
}

// Calls returns the role grants that bring a fresh market to g: the owner
// appoints every administrator, then the first administrator appoints every
// store owner.
func (g *Genesis) Calls() []engine.Call {
	owner := market.Principal(g.Owner)
	calls := make([]engine.Call, 0, len(g.Administrators)+len(g.StoreOwners))
	for _, a := range g.Administrators {
		calls = append(calls, engine.Call{
			Op:     engine.OpAddAdministrator,
			Caller: owner,
			Args:   payload.Object{engine.ArgPrincipal: payload.String(a)},
		})
	}
	for _, s := range g.StoreOwners {
		calls = append(calls, engine.Call{
			Op:     engine.OpAddStoreOwner,
			Caller: market.Principal(g.Administrators[0]),
			Args:   payload.Object{engine.ArgPrincipal: payload.String(s)},
		})
	}
	return calls
}

// Apply initializes st from g and opens an engine over it. The role grants
// run as ordinary calls, so they appear in the event log and the audit
// trail.
func Apply(ctx context.Context, st *store.Store, g *Genesis, opts ...engine.Option) (*engine.Engine, error) {
	accounts, err := g.WalletAccounts()
	if err != nil {
		return nil, err
	}
	if err := engine.Initialize(ctx, st, market.Principal(g.Owner), accounts); err != nil {
		return nil, err
	}
	e, err := engine.Open(ctx, st, opts...)
	if err != nil {
		return nil, err
	}
	for _, c := range g.Calls() {
		if _, err := e.Execute(ctx, c); err != nil {
			return nil, fmt.Errorf("genesis %s %s: %w", c.Op, c.Args.String(engine.ArgPrincipal), err)
		}
	}
	return e, nil
}
