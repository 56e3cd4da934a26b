package ledger_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stellarsplit/internal/crypto"
	"stellarsplit/internal/domain"
	"stellarsplit/internal/ledger"
	"stellarsplit/internal/ledgersim"
	"stellarsplit/internal/protocol/txenvelope"
)

const passphrase = "Test SDF Network ; September 2015"

type env struct {
	sim    *ledgersim.Ledger
	client *ledger.Client
	alice  *crypto.KeyPair
	bob    *crypto.KeyPair
}

func setup(t *testing.T) *env {
	t.Helper()
	sim, err := ledgersim.New(ledgersim.Options{Passphrase: passphrase, FriendbotAmount: "100"})
	require.NoError(t, err)
	srv := httptest.NewServer(sim.Handler())
	t.Cleanup(srv.Close)

	e := &env{
		sim:    sim,
		client: ledger.New(ledger.Config{BaseURL: srv.URL, NetworkPassphrase: passphrase, RPS: 1000}),
	}
	e.alice, err = crypto.RandomKeyPair()
	require.NoError(t, err)
	e.bob, err = crypto.RandomKeyPair()
	require.NoError(t, err)
	return e
}

func signWith(kp *crypto.KeyPair) domain.Signer {
	return func(_ context.Context, unsigned string) (string, error) {
		tx, err := txenvelope.Decode(unsigned)
		if err != nil {
			return "", err
		}
		if err := tx.Sign(passphrase, kp); err != nil {
			return "", err
		}
		return txenvelope.Encode(tx)
	}
}

func addr(kp *crypto.KeyPair) domain.Address { return domain.Address(kp.Address()) }

func TestLoadBalance_States(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	b := e.client.LoadBalance(ctx, addr(e.alice))
	assert.Equal(t, domain.BalanceUnknown, b.State)
	assert.True(t, b.Amount().IsZero())

	require.NoError(t, e.client.Friendbot(ctx, addr(e.alice)))
	b = e.client.LoadBalance(ctx, addr(e.alice))
	assert.Equal(t, domain.BalanceKnown, b.State)
	assert.Equal(t, "100.0000000", b.String())
}

func TestLoadBalance_FailedOnTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()
	c := ledger.New(ledger.Config{BaseURL: srv.URL, NetworkPassphrase: passphrase})

	kp, err := crypto.RandomKeyPair()
	require.NoError(t, err)
	b := c.LoadBalance(context.Background(), addr(kp))
	assert.Equal(t, domain.BalanceFailed, b.State)
	assert.ErrorIs(t, b.Err, domain.ErrLedger)
	assert.True(t, b.Amount().IsZero())
}

func TestBuildAndSubmitPayment_Success(t *testing.T) {
	e := setup(t)
	require.NoError(t, e.sim.Fund(e.alice.Address()))
	require.NoError(t, e.sim.Fund(e.bob.Address()))

	res, err := e.client.BuildAndSubmitPayment(context.Background(),
		addr(e.alice), addr(e.bob), decimal.RequireFromString("12.5"), signWith(e.alice))
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Len(t, res.Hash.String(), 64)

	acc, ok := e.sim.Account(e.bob.Address())
	require.True(t, ok)
	assert.Equal(t, "112.5000000", acc.Balance.StringFixed(7))
}

func TestBuildAndSubmitPayment_LedgerRejection(t *testing.T) {
	e := setup(t)
	require.NoError(t, e.sim.Fund(e.alice.Address()))

	_, err := e.client.BuildAndSubmitPayment(context.Background(),
		addr(e.alice), addr(e.bob), decimal.RequireFromString("1"), signWith(e.alice))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrLedger)

	var le *ledger.LedgerError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, http.StatusBadRequest, le.Status)
	assert.Equal(t, ledgersim.CodeFailed, le.TxCode)
	assert.True(t, le.HasCode(ledgersim.OpNoDestination))
}

func TestBuildAndSubmitPayment_SourceMissing(t *testing.T) {
	e := setup(t)
	_, err := e.client.BuildAndSubmitPayment(context.Background(),
		addr(e.alice), addr(e.bob), decimal.RequireFromString("1"), signWith(e.alice))
	assert.ErrorIs(t, err, domain.ErrLedger)
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)
}

func TestBuildAndSubmitPayment_SignerErrorPropagates(t *testing.T) {
	e := setup(t)
	require.NoError(t, e.sim.Fund(e.alice.Address()))
	require.NoError(t, e.sim.Fund(e.bob.Address()))

	reject := func(context.Context, string) (string, error) { return "", domain.ErrSigningRejected }
	_, err := e.client.BuildAndSubmitPayment(context.Background(),
		addr(e.alice), addr(e.bob), decimal.RequireFromString("1"), reject)
	assert.ErrorIs(t, err, domain.ErrSigningRejected)
	assert.NotErrorIs(t, err, domain.ErrLedger)

	acc, _ := e.sim.Account(e.alice.Address())
	assert.Equal(t, "100.0000000", acc.Balance.StringFixed(7))
}

func TestBuildAndSubmitPayment_WrongSigner(t *testing.T) {
	e := setup(t)
	require.NoError(t, e.sim.Fund(e.alice.Address()))
	require.NoError(t, e.sim.Fund(e.bob.Address()))

	_, err := e.client.BuildAndSubmitPayment(context.Background(),
		addr(e.alice), addr(e.bob), decimal.RequireFromString("1"), signWith(e.bob))
	var le *ledger.LedgerError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, ledgersim.CodeBadAuth, le.TxCode)
}

func TestBuildAndSubmitPayment_InvalidAmount(t *testing.T) {
	e := setup(t)
	for _, a := range []string{"0", "-1", "0.00000001"} {
		_, err := e.client.BuildAndSubmitPayment(context.Background(),
			addr(e.alice), addr(e.bob), decimal.RequireFromString(a), signWith(e.alice))
		assert.ErrorIs(t, err, domain.ErrLedger, a)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, a)
	}
}

func TestBuildAndSubmitPayment_TimeBounds(t *testing.T) {
	e := setup(t)
	var seen txenvelope.Envelope
	require.NoError(t, e.sim.Fund(e.alice.Address()))
	require.NoError(t, e.sim.Fund(e.bob.Address()))

	capture := func(ctx context.Context, unsigned string) (string, error) {
		tx, err := txenvelope.Decode(unsigned)
		if err != nil {
			return "", err
		}
		seen = tx
		return signWith(e.alice)(ctx, unsigned)
	}
	_, err := e.client.BuildAndSubmitPayment(context.Background(),
		addr(e.alice), addr(e.bob), decimal.RequireFromString("1"), capture)
	require.NoError(t, err)
	assert.Equal(t, "StellarSplit", seen.Tx.Memo)
	assert.Equal(t, int64(100), seen.Tx.Fee)
	assert.Equal(t, int64(0), seen.Tx.TimeBounds.MinTime)
	assert.InDelta(t, time.Now().Add(ledger.DefaultTxTimeout).Unix(), seen.Tx.TimeBounds.MaxTime, 5)
}
