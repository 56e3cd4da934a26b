package commands

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stellarsplit/internal/crypto"
	"stellarsplit/internal/domain"
)

func run(t *testing.T, home string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--home", home}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestParseParticipant(t *testing.T) {
	p, err := parseParticipant("Ann=GABC")
	require.NoError(t, err)
	assert.Equal(t, domain.ParticipantInput{Name: "Ann", Address: "GABC"}, p)

	_, err = parseParticipant("Ann")
	assert.Error(t, err)
}

func TestBillLifecycle(t *testing.T) {
	home := t.TempDir()
	kp, err := crypto.RandomKeyPair()
	require.NoError(t, err)
	addr := kp.Address()
	other, err := crypto.RandomKeyPair()
	require.NoError(t, err)

	out, err := run(t, home, "bill", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No bills.")

	out, err = run(t, home, "bill", "create",
		"--title", "Lunch", "--total", "10",
		"--creator", addr,
		"--participant", "Ann="+addr,
		"--participant", "Bob="+other.Address())
	require.NoError(t, err)
	assert.Contains(t, out, "Lunch (open)")
	assert.Contains(t, out, "5.0000000")

	out, err = run(t, home, "bill", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "0/2 paid")
	assert.Contains(t, out, "Lunch")

	_, err = run(t, home, "bill", "delete", "missing")
	assert.ErrorContains(t, err, "no bill missing")
}
