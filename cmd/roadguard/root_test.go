package main

import (
	"bytes"
	"net/netip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roadguard/models"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(bytes.NewReader(nil))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	_, err := run(t, "version", "--conf", filepath.Join(t.TempDir(), "none.toml"))
	require.Error(t, err, "an explicit --conf must exist")

	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "roadguard n/a")
}

func TestRemoveClientIsRejected(t *testing.T) {
	_, err := run(t, "remove-client", "laptop", "--lock-dir", t.TempDir())
	require.ErrorIs(t, err, models.ErrUnsupported)
}

func TestAddClientWithoutEndpoint(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, "add-client", "--key-dir", dir, "--client-dir", dir, "--lock-dir", dir, "--wg", "/nonexistent/wg")
	require.ErrorIs(t, err, models.ErrValidation)
	assert.NotEmpty(t, models.Hint(err))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestInvalidServerAddress(t *testing.T) {
	_, err := run(t, "setup", "--ip", "fd00::1")
	require.ErrorIs(t, err, models.ErrValidation)

	_, err = run(t, "setup", "--ip", "10.0.0.1/16")
	require.ErrorIs(t, err, models.ErrValidation)

	_, err = run(t, "setup", "--ip", "10.253.3.7")
	require.ErrorIs(t, err, models.ErrValidation)
}

func TestParseServerAddress(t *testing.T) {
	p, err := parseServerAddress("10.253.3.1")
	require.NoError(t, err)
	assert.Equal(t, netip.MustParsePrefix("10.253.3.1/24"), p)

	p, err = parseServerAddress(" 192.168.50.1/24 ")
	require.NoError(t, err)
	assert.Equal(t, netip.MustParsePrefix("192.168.50.1/24"), p)

	_, err = parseServerAddress("not-an-ip")
	require.ErrorIs(t, err, models.ErrValidation)
}

func TestSettingsPrecedence(t *testing.T) {
	dir := t.TempDir()
	conf := filepath.Join(dir, "roadguard.toml")
	require.NoError(t, os.WriteFile(conf, []byte(`
[Server]
Address = "10.9.0.1/24"
InterfaceName = "wg7"
ListenPort = 51821

[Client]
GenerateQR = true
`), 0o600))

	t.Setenv("ROADGUARD_INTERFACE", "wg8")

	root, a := buildRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"version", "--conf", conf, "--port", "40000"})
	require.NoError(t, root.Execute())

	s, err := a.settings()
	require.NoError(t, err)
	assert.Equal(t, netip.MustParsePrefix("10.9.0.1/24"), s.ServerAddress, "toml over default")
	assert.Equal(t, "wg8", s.InterfaceName, "env over toml")
	assert.Equal(t, uint16(40000), s.ListenPort, "flag over toml")
	assert.True(t, s.GenerateQR)
	assert.Equal(t, models.DefaultDNS, s.DNS)
}
