package settlement_test

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stellarsplit/internal/agent"
	"stellarsplit/internal/crypto"
	"stellarsplit/internal/domain"
	"stellarsplit/internal/ledger"
	"stellarsplit/internal/ledgersim"
	"stellarsplit/internal/services/bill"
	"stellarsplit/internal/services/payment"
	"stellarsplit/internal/services/session"
	"stellarsplit/internal/services/settlement"
	"stellarsplit/internal/signer"
	"stellarsplit/internal/store"
)

const passphrase = "Test SDF Network ; September 2015"

type world struct {
	sim     *ledgersim.Ledger
	bills   *bill.Service
	session *session.Service
	svc     *settlement.Service
	alice   *crypto.KeyPair
	bob     *crypto.KeyPair
}

func newWorld(t *testing.T, approver signer.Approver) *world {
	t.Helper()
	w := &world{}
	var err error
	w.alice, err = crypto.RandomKeyPair()
	require.NoError(t, err)
	w.bob, err = crypto.RandomKeyPair()
	require.NoError(t, err)

	w.sim, err = ledgersim.New(ledgersim.Options{Passphrase: passphrase, FriendbotAmount: "1000"})
	require.NoError(t, err)
	require.NoError(t, w.sim.Fund(w.alice.Address()))
	require.NoError(t, w.sim.Fund(w.bob.Address()))
	ledgerSrv := httptest.NewServer(w.sim.Handler())
	t.Cleanup(ledgerSrv.Close)

	dev := signer.New(signer.Config{Network: "TESTNET", NetworkPassphrase: passphrase, Approver: approver}, w.alice)
	agentSrv := httptest.NewServer(dev.Handler())
	t.Cleanup(agentSrv.Close)

	lc := ledger.New(ledger.Config{BaseURL: ledgerSrv.URL, NetworkPassphrase: passphrase, RPS: 1000})
	bridge := agent.New(agent.Config{BaseURL: agentSrv.URL})
	w.session = session.New(bridge, lc, session.Config{Network: "TESTNET", NetworkPassphrase: passphrase})
	t.Cleanup(w.session.Disconnect)
	w.bills = bill.New(store.NewFileBillRepository(t.TempDir()), nil, nil)
	w.svc = settlement.New(w.bills, w.session, payment.New(lc, bridge, passphrase, nil, nil), nil)
	return w
}

func (w *world) createBill(t *testing.T) domain.Bill {
	t.Helper()
	b, err := w.svc.CreateBill(context.Background(), domain.CreateBillInput{
		Title:          "Cabin weekend",
		TotalAmount:    "100",
		CreatorAddress: domain.Address(w.bob.Address()),
		Participants: []domain.ParticipantInput{
			{Name: "Alice", Address: domain.Address(w.alice.Address())},
			{Name: "Bob", Address: domain.Address(w.bob.Address())},
		},
	})
	require.NoError(t, err)
	return b
}

func TestPayShare_EndToEnd(t *testing.T) {
	w := newWorld(t, signer.AutoApprover{})
	ctx := context.Background()
	b := w.createBill(t)
	assert.Equal(t, domain.Address(w.bob.Address()), b.RecipientAddress)

	var hooked []domain.TxHash
	w.svc.OnSettled(func(id domain.BillID, _ domain.Address, h domain.TxHash) {
		assert.Equal(t, b.ID, id)
		hooked = append(hooked, h)
	})

	alice := domain.Address(w.alice.Address())
	res, err := w.svc.PayShare(ctx, b.ID, alice)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, alice, res.ParticipantAddress)
	assert.Equal(t, []domain.TxHash{res.TxHash}, hooked)

	stored, err := w.bills.Get(ctx, b.ID)
	require.NoError(t, err)
	p, _, _ := stored.Participant(alice)
	assert.True(t, p.Paid)
	assert.Equal(t, res.TxHash, p.TxHash)
	assert.Equal(t, domain.BillOpen, stored.Status)

	bobAcc, _ := w.sim.Account(w.bob.Address())
	assert.True(t, bobAcc.Balance.Equal(decimal.RequireFromString("1050")))

	snap := w.session.Snapshot()
	assert.Equal(t, domain.SessionConnected, snap.State)
	assert.Equal(t, "949.9999900", snap.Balance)

	_, err = w.svc.PayShare(ctx, b.ID, alice)
	assert.ErrorIs(t, err, domain.ErrAlreadyPaid)
}

func TestPayShare_OtherParticipantIsMismatch(t *testing.T) {
	w := newWorld(t, signer.AutoApprover{})
	ctx := context.Background()
	b := w.createBill(t)

	_, err := w.svc.PayShare(ctx, b.ID, domain.Address(w.bob.Address()))
	assert.ErrorIs(t, err, domain.ErrIdentityMismatch)

	stored, err := w.bills.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b, stored)
}

func TestPayShare_DeclinedSignatureLeavesBillUntouched(t *testing.T) {
	w := newWorld(t, accessOnly{})
	ctx := context.Background()
	b := w.createBill(t)

	_, err := w.svc.PayShare(ctx, b.ID, domain.Address(w.alice.Address()))
	assert.ErrorIs(t, err, domain.ErrSigningRejected)

	stored, err := w.bills.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b, stored)
	acc, _ := w.sim.Account(w.alice.Address())
	assert.True(t, acc.Balance.Equal(decimal.RequireFromString("1000")))
}

func TestCreateBill_DefaultsToConnectedWallet(t *testing.T) {
	w := newWorld(t, signer.AutoApprover{})
	ctx := context.Background()
	in := domain.CreateBillInput{
		Title:        "Taxi",
		TotalAmount:  "12",
		Participants: []domain.ParticipantInput{{Name: "Bob", Address: domain.Address(w.bob.Address())}},
	}

	_, err := w.svc.CreateBill(ctx, in)
	assert.ErrorIs(t, err, domain.ErrNotConnected)

	_, err = w.session.Connect(ctx)
	require.NoError(t, err)
	b, err := w.svc.CreateBill(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, domain.Address(w.alice.Address()), b.CreatorAddress)
	assert.Equal(t, domain.Address(w.alice.Address()), b.RecipientAddress)
}

type accessOnly struct{}

func (accessOnly) ApproveAccess(context.Context, string) bool { return true }
func (accessOnly) ApproveSign(context.Context, signer.SignSummary) bool { return false }

// blockingPayments holds every Pay until release is closed.
type blockingPayments struct {
	entered chan struct{}
	release chan struct{}
}

func (p *blockingPayments) Pay(
	_ context.Context,
	payer domain.WalletIdentity,
	participant, _ domain.Address,
	_ decimal.Decimal,
) (domain.SettlementResult, error) {
	p.entered <- struct{}{}
	<-p.release
	return domain.SettlementResult{ParticipantAddress: participant, TxHash: "h1", Success: true}, nil
}

type connectedSession struct{ id domain.WalletIdentity }

func (s connectedSession) Connect(context.Context) (domain.WalletIdentity, error) { return s.id, nil }
func (s connectedSession) Disconnect() {}
func (s connectedSession) Refresh(context.Context) {}
func (s connectedSession) Identity() (domain.WalletIdentity, bool) { return s.id, true }
func (s connectedSession) Snapshot() domain.SessionSnapshot { return domain.SessionSnapshot{} }

func TestPayShare_ConcurrentAttemptIsRejected(t *testing.T) {
	alice, err := crypto.RandomKeyPair()
	require.NoError(t, err)
	addr := domain.Address(alice.Address())
	bills := bill.New(store.NewFileBillRepository(t.TempDir()), nil, nil)
	pay := &blockingPayments{entered: make(chan struct{}, 1), release: make(chan struct{})}
	svc := settlement.New(bills, connectedSession{id: domain.WalletIdentity{PublicKey: addr}}, pay, nil)

	b, err := bills.Create(context.Background(), domain.CreateBillInput{
		Title: "Rent", TotalAmount: "10", CreatorAddress: addr, RecipientAddress: addr,
		Participants: []domain.ParticipantInput{{Name: "A", Address: addr}},
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := svc.PayShare(context.Background(), b.ID, addr)
		assert.NoError(t, err)
	}()
	select {
	case <-pay.entered:
	case <-time.After(time.Second):
		t.Fatal("first payment never started")
	}

	_, err = svc.PayShare(context.Background(), b.ID, addr)
	assert.ErrorIs(t, err, domain.ErrPaymentInFlight)

	close(pay.release)
	wg.Wait()

	stored, err := bills.Get(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BillSettled, stored.Status)
}
