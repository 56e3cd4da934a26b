package agent_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stellarsplit/internal/agent"
	"stellarsplit/internal/crypto"
	"stellarsplit/internal/domain"
	"stellarsplit/internal/protocol/txenvelope"
	"stellarsplit/internal/signer"
)

const passphrase = "Test SDF Network ; September 2015"

func serve(t *testing.T, h http.Handler) *agent.Bridge {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return agent.New(agent.Config{BaseURL: srv.URL})
}

func devAgent(t *testing.T, approver signer.Approver) (*agent.Bridge, *crypto.KeyPair) {
	t.Helper()
	kp, err := crypto.RandomKeyPair()
	require.NoError(t, err)
	a := signer.New(signer.Config{Network: "TESTNET", NetworkPassphrase: passphrase, Approver: approver}, kp)
	return serve(t, a.Handler()), kp
}

func staticJSON(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	})
}

func TestProbe(t *testing.T) {
	b, _ := devAgent(t, signer.AutoApprover{})
	assert.Equal(t, agent.StateUnknown, b.State())
	assert.True(t, b.Probe(context.Background()))
	assert.Equal(t, agent.StateAvailable, b.State())
}

func TestProbe_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	b := agent.New(agent.Config{BaseURL: url})
	assert.False(t, b.Probe(context.Background()))
	assert.Equal(t, agent.StateUnavailable, b.State())
}

func TestProbe_ErrorText(t *testing.T) {
	cases := map[string]struct {
		body string
		want bool
	}{
		"not installed":      {`{"error":"Freighter is not installed"}`, false},
		"extension missing":  {`{"error":{"code":-1,"message":"Extension not found"}}`, false},
		"not yet authorised": {`{"error":{"code":-3,"message":"application is not allowed"}}`, true},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			b := serve(t, staticJSON(tc.body))
			assert.Equal(t, tc.want, b.Probe(context.Background()))
		})
	}
}

func TestAccessAndIdentity(t *testing.T) {
	b, kp := devAgent(t, signer.AutoApprover{})
	ctx := context.Background()

	allowed, err := b.IsAllowed(ctx)
	require.NoError(t, err)
	assert.False(t, allowed)

	_, err = b.Identity(ctx)
	assert.ErrorIs(t, err, domain.ErrIdentityUnavailable)

	require.NoError(t, b.RequestAccess(ctx))
	allowed, err = b.IsAllowed(ctx)
	require.NoError(t, err)
	assert.True(t, allowed)

	id, err := b.Identity(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Address(kp.Address()), id.PublicKey)
	assert.Equal(t, domain.NetworkID("TESTNET"), id.Network)
	assert.Equal(t, passphrase, id.NetworkPassphrase)
}

func TestRequestAccess_Declined(t *testing.T) {
	b, _ := devAgent(t, signer.DenyApprover{})
	assert.ErrorIs(t, b.RequestAccess(context.Background()), domain.ErrAccessDenied)
}

func TestSign(t *testing.T) {
	b, kp := devAgent(t, signer.AutoApprover{})
	ctx := context.Background()
	require.NoError(t, b.RequestAccess(ctx))

	dest, err := crypto.RandomKeyPair()
	require.NoError(t, err)
	env, err := txenvelope.NewPayment(txenvelope.PaymentParams{
		Source: kp.Address(), SeqNum: 7, Fee: 100, Memo: "StellarSplit",
		Destination: dest.Address(), Amount: "1.0000000", Timeout: time.Minute,
	}, time.Now())
	require.NoError(t, err)
	unsigned, err := txenvelope.Encode(env)
	require.NoError(t, err)

	signed, err := b.Sign(ctx, unsigned, domain.SignOptions{
		NetworkPassphrase: passphrase, Address: domain.Address(kp.Address()),
	})
	require.NoError(t, err)
	out, err := txenvelope.Decode(signed)
	require.NoError(t, err)
	assert.True(t, out.VerifySigner(passphrase, kp.Address()))

	_, err = b.Sign(ctx, unsigned, domain.SignOptions{NetworkPassphrase: "other network"})
	assert.ErrorIs(t, err, domain.ErrSigningRejected)
}

func TestSign_ResponseBoundToRequest(t *testing.T) {
	kp, err := crypto.RandomKeyPair()
	require.NoError(t, err)
	cases := map[string]string{
		"network swapped": `{"signedTxXdr":"abc","networkPassphrase":"Public Global Stellar Network ; September 2015"}`,
		"signer swapped":  `{"signedTxXdr":"abc","signerAddress":"` + kp.Address() + `"}`,
		"empty":           `{}`,
		"error string":    `{"error":"User declined access"}`,
	}
	other, err := crypto.RandomKeyPair()
	require.NoError(t, err)
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			b := serve(t, staticJSON(body))
			_, err := b.Sign(context.Background(), "abc", domain.SignOptions{
				NetworkPassphrase: passphrase, Address: domain.Address(other.Address()),
			})
			assert.ErrorIs(t, err, domain.ErrSigningRejected)
		})
	}
}

func TestSign_VerifiesEnvelopeWithoutEcho(t *testing.T) {
	kp, err := crypto.RandomKeyPair()
	require.NoError(t, err)
	dest, err := crypto.RandomKeyPair()
	require.NoError(t, err)

	signedFor := func(network string) string {
		env, err := txenvelope.NewPayment(txenvelope.PaymentParams{
			Source: kp.Address(), SeqNum: 1, Fee: 100,
			Destination: dest.Address(), Amount: "2.0000000", Timeout: time.Minute,
		}, time.Now())
		require.NoError(t, err)
		require.NoError(t, env.Sign(network, kp))
		enc, err := txenvelope.Encode(env)
		require.NoError(t, err)
		return enc
	}
	opts := domain.SignOptions{NetworkPassphrase: passphrase, Address: domain.Address(kp.Address())}

	good := signedFor(passphrase)
	b := serve(t, staticJSON(`{"signedTxXdr":"`+good+`"}`))
	got, err := b.Sign(context.Background(), "unsigned", opts)
	require.NoError(t, err)
	assert.Equal(t, good, got)

	pub := signedFor("Public Global Stellar Network ; September 2015")
	b = serve(t, staticJSON(`{"signedTxXdr":"`+pub+`"}`))
	_, err = b.Sign(context.Background(), "unsigned", opts)
	assert.ErrorIs(t, err, domain.ErrSigningRejected)

	b = serve(t, staticJSON(`{"signedTxXdr":"not-an-envelope"}`))
	_, err = b.Sign(context.Background(), "unsigned", opts)
	assert.ErrorIs(t, err, domain.ErrSigningRejected)
}

func TestIsAllowed_Non2xxIsError(t *testing.T) {
	b := serve(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	_, err := b.IsAllowed(context.Background())
	assert.Error(t, err)
}
