package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stellarsplit/internal/store"
)

// BIP-39 test vector; SEP-5 lists its first account.
const testMnemonic = "illness spike retreat truth genius clock brain pass fit cave bargain toe"

func TestKeyFromMnemonic(t *testing.T) {
	kp, err := keyFromMnemonic(testMnemonic)
	require.NoError(t, err)
	assert.Equal(t, "GDRXE2BQUC3AZNPVFSCEZ76NJ3WWL25FYFK6RGZGIEKWE4SOOHSUJUJ6", kp.Address())

	again, err := keyFromMnemonic("  illness spike retreat truth genius clock\nbrain pass fit cave bargain toe ")
	require.NoError(t, err)
	assert.Equal(t, kp.Address(), again.Address())

	_, err = keyFromMnemonic("not a real phrase")
	assert.Error(t, err)
}

func TestInitStoresKey(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(passphraseEnv, "correct horse")

	cmd := rootCmd()
	cmd.SetArgs([]string{"--home", dir, "init", "--mnemonic", testMnemonic})
	require.NoError(t, cmd.Execute())

	kp, err := store.NewKeyFileStore(dir).LoadKeyPair("correct horse")
	require.NoError(t, err)
	assert.Equal(t, "GDRXE2BQUC3AZNPVFSCEZ76NJ3WWL25FYFK6RGZGIEKWE4SOOHSUJUJ6", kp.Address())

	cmd = rootCmd()
	cmd.SetArgs([]string{"--home", dir, "init", "--mnemonic", testMnemonic})
	assert.ErrorContains(t, cmd.Execute(), "--force")
}

func TestNewApprover(t *testing.T) {
	for _, mode := range []string{"prompt", "auto", "deny"} {
		a, err := newApprover(mode, rootCmd())
		require.NoError(t, err)
		assert.NotNil(t, a)
	}
	_, err := newApprover("maybe", rootCmd())
	assert.Error(t, err)
}
