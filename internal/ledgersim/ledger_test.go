package ledgersim_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stellarsplit/internal/crypto"
	"stellarsplit/internal/ledgersim"
	"stellarsplit/internal/protocol/txenvelope"
)

const passphrase = "Test SDF Network ; September 2015"

type fixture struct {
	ledger *ledgersim.Ledger
	now    time.Time
	alice  *crypto.KeyPair
	bob    *crypto.KeyPair
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{now: time.Unix(1_700_000_000, 0)}
	l, err := ledgersim.New(ledgersim.Options{
		Passphrase:      passphrase,
		FriendbotAmount: "100",
		Now:             func() time.Time { return f.now },
	})
	require.NoError(t, err)
	f.ledger = l
	f.alice, err = crypto.RandomKeyPair()
	require.NoError(t, err)
	f.bob, err = crypto.RandomKeyPair()
	require.NoError(t, err)
	require.NoError(t, l.Fund(f.alice.Address()))
	require.NoError(t, l.Fund(f.bob.Address()))
	return f
}

func (f *fixture) payment(t *testing.T, from *crypto.KeyPair, to, amount string, signer *crypto.KeyPair) string {
	t.Helper()
	acc, ok := f.ledger.Account(from.Address())
	require.True(t, ok)
	env, err := txenvelope.NewPayment(txenvelope.PaymentParams{
		Source:      from.Address(),
		SeqNum:      acc.Sequence + 1,
		Fee:         100,
		Memo:        "StellarSplit",
		Destination: to,
		Amount:      amount,
		Timeout:     180 * time.Second,
	}, f.now)
	require.NoError(t, err)
	require.NoError(t, env.Sign(passphrase, signer))
	s, err := txenvelope.Encode(env)
	require.NoError(t, err)
	return s
}

func submitErr(l *ledgersim.Ledger, tx string) error {
	_, err := l.Submit(tx)
	return err
}

func rejection(t *testing.T, err error) *ledgersim.Rejection {
	t.Helper()
	require.Error(t, err)
	rej, ok := err.(*ledgersim.Rejection)
	require.True(t, ok, "unexpected error %v", err)
	return rej
}

func TestSubmit_AppliesPayment(t *testing.T) {
	f := newFixture(t)
	res, err := f.ledger.Submit(f.payment(t, f.alice, f.bob.Address(), "25", f.alice))
	require.NoError(t, err)
	assert.Len(t, res.Hash, 64)
	assert.Equal(t, int64(2), res.Ledger)

	a, _ := f.ledger.Account(f.alice.Address())
	b, _ := f.ledger.Account(f.bob.Address())
	assert.Equal(t, "74.9999900", a.Balance.StringFixed(7))
	assert.Equal(t, "125.0000000", b.Balance.StringFixed(7))
}

func TestSubmit_ResubmitSameEnvelopeIsIdempotent(t *testing.T) {
	f := newFixture(t)
	tx := f.payment(t, f.alice, f.bob.Address(), "1", f.alice)
	r1, err := f.ledger.Submit(tx)
	require.NoError(t, err)
	r2, err := f.ledger.Submit(tx)
	require.NoError(t, err)
	assert.Equal(t, r1, r2)

	b, _ := f.ledger.Account(f.bob.Address())
	assert.Equal(t, "101.0000000", b.Balance.StringFixed(7))
}

func TestSubmit_Rejections(t *testing.T) {
	f := newFixture(t)
	stranger, err := crypto.RandomKeyPair()
	require.NoError(t, err)

	rej := rejection(t, submitErr(f.ledger, f.payment(t, f.alice, f.bob.Address(), "1", stranger)))
	assert.Equal(t, ledgersim.CodeBadAuth, rej.Transaction)

	rej = rejection(t, submitErr(f.ledger, f.payment(t, f.alice, stranger.Address(), "1", f.alice)))
	assert.Equal(t, ledgersim.CodeFailed, rej.Transaction)
	assert.Equal(t, []string{ledgersim.OpNoDestination}, rej.Operations)

	rej = rejection(t, submitErr(f.ledger, f.payment(t, f.alice, f.bob.Address(), "1000", f.alice)))
	assert.Equal(t, ledgersim.CodeFailed, rej.Transaction)
	assert.Equal(t, []string{ledgersim.OpUnderfunded}, rej.Operations)

	rej = rejection(t, submitErr(f.ledger, "not-an-envelope"))
	assert.Equal(t, ledgersim.CodeMalformed, rej.Transaction)
}

func TestSubmit_TooLateAndBadSeq(t *testing.T) {
	f := newFixture(t)
	tx := f.payment(t, f.alice, f.bob.Address(), "1", f.alice)
	f.now = f.now.Add(181 * time.Second)
	rej := rejection(t, submitErr(f.ledger, tx))
	assert.Equal(t, ledgersim.CodeTooLate, rej.Transaction)

	first := f.payment(t, f.alice, f.bob.Address(), "1", f.alice)
	second := f.payment(t, f.alice, f.bob.Address(), "2", f.alice)
	_, err := f.ledger.Submit(first)
	require.NoError(t, err)
	rej = rejection(t, submitErr(f.ledger, second))
	assert.Equal(t, ledgersim.CodeBadSeq, rej.Transaction)
}
