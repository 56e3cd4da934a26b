package signer_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stellarsplit/internal/crypto"
	"stellarsplit/internal/protocol/txenvelope"
	"stellarsplit/internal/signer"
)

const passphrase = "Test SDF Network ; September 2015"

func post(t *testing.T, h http.Handler, path string, body any) map[string]any {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b)))
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func get(t *testing.T, h http.Handler, path string) map[string]any {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func unsignedPayment(t *testing.T, source string) string {
	t.Helper()
	dest, err := crypto.RandomKeyPair()
	require.NoError(t, err)
	env, err := txenvelope.NewPayment(txenvelope.PaymentParams{
		Source: source, SeqNum: 1, Fee: 100, Memo: "StellarSplit",
		Destination: dest.Address(), Amount: "5.0000000", Timeout: time.Minute,
	}, time.Now())
	require.NoError(t, err)
	s, err := txenvelope.Encode(env)
	require.NoError(t, err)
	return s
}

func TestAgent_AccessThenSign(t *testing.T) {
	kp, err := crypto.RandomKeyPair()
	require.NoError(t, err)
	a := signer.New(signer.Config{
		Network: "TESTNET", NetworkPassphrase: passphrase, Approver: signer.AutoApprover{},
	}, kp)
	h := a.Handler()

	assert.Equal(t, true, get(t, h, "/v1/connected")["isConnected"])
	assert.Equal(t, false, get(t, h, "/v1/allowed")["isAllowed"])
	assert.NotNil(t, get(t, h, "/v1/address")["error"])

	assert.Equal(t, kp.Address(), post(t, h, "/v1/access", struct{}{})["address"])
	assert.Equal(t, true, get(t, h, "/v1/allowed")["isAllowed"])
	assert.Equal(t, kp.Address(), get(t, h, "/v1/address")["address"])
	assert.Equal(t, "TESTNET", get(t, h, "/v1/network")["network"])

	out := post(t, h, "/v1/sign", map[string]string{
		"xdr": unsignedPayment(t, kp.Address()), "networkPassphrase": passphrase, "address": kp.Address(),
	})
	require.Nil(t, out["error"])
	signed, err := txenvelope.Decode(out["signedTxXdr"].(string))
	require.NoError(t, err)
	assert.True(t, signed.VerifySigner(passphrase, kp.Address()))
	assert.Equal(t, kp.Address(), out["signerAddress"])
}

func TestAgent_Declines(t *testing.T) {
	kp, err := crypto.RandomKeyPair()
	require.NoError(t, err)
	h := signer.New(signer.Config{Network: "TESTNET", NetworkPassphrase: passphrase}, kp).Handler()

	out := post(t, h, "/v1/access", struct{}{})
	errObj, ok := out["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(signer.CodeUserDeclined), errObj["code"])
}

func TestAgent_SignRefusals(t *testing.T) {
	kp, err := crypto.RandomKeyPair()
	require.NoError(t, err)
	other, err := crypto.RandomKeyPair()
	require.NoError(t, err)
	a := signer.New(signer.Config{
		Network: "TESTNET", NetworkPassphrase: passphrase, Approver: signer.AutoApprover{},
	}, kp)
	h := a.Handler()

	out := post(t, h, "/v1/sign", map[string]string{"xdr": unsignedPayment(t, kp.Address()), "networkPassphrase": passphrase})
	assert.NotNil(t, out["error"], "sign before access")

	post(t, h, "/v1/access", struct{}{})

	cases := map[string]map[string]string{
		"wrong network": {"xdr": unsignedPayment(t, kp.Address()), "networkPassphrase": "Public Global Stellar Network ; September 2015"},
		"wrong signer":  {"xdr": unsignedPayment(t, kp.Address()), "networkPassphrase": passphrase, "address": other.Address()},
		"wrong source":  {"xdr": unsignedPayment(t, other.Address()), "networkPassphrase": passphrase},
		"malformed":     {"xdr": "garbage", "networkPassphrase": passphrase},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			out := post(t, h, "/v1/sign", req)
			assert.NotNil(t, out["error"])
			assert.Nil(t, out["signedTxXdr"])
		})
	}

	a.Lock()
	assert.Equal(t, false, get(t, h, "/v1/allowed")["isAllowed"])
	assert.NotNil(t, get(t, h, "/v1/address")["error"])
}

func TestPromptApprover(t *testing.T) {
	var out bytes.Buffer
	p := signer.NewPromptApprover(strings.NewReader("y\nno\n"), &out)
	ctx := context.Background()

	assert.True(t, p.ApproveAccess(ctx, "https://app.example"))
	assert.False(t, p.ApproveSign(ctx, signer.SignSummary{Amount: "5.0000000", Destination: "GDEST", Network: "TESTNET"}))
	assert.False(t, p.ApproveAccess(ctx, ""), "EOF declines")
	assert.Contains(t, out.String(), "Sign payment of 5.0000000 XLM to GDEST on TESTNET")
}
