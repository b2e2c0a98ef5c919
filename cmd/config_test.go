package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roadguard/models"
)

const testToml = `
[Server]
Address = "10.9.0.1/24"
InterfaceName = "wg1"
ListenPort = 51821
DNS = "9.9.9.9"
Native = true

[Paths]
WireguardDir = "/tmp/wg"

[Client]
Endpoint = "vpn.example.com"
StunServers = ["stun.example.com:3478"]
GenerateQR = true
`

func TestLoadConf(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultConfName)
	require.NoError(t, os.WriteFile(path, []byte(testToml), 0o600))

	conf, err := LoadConf(path, true)
	require.NoError(t, err)
	assert.Equal(t, "10.9.0.1/24", conf.Server.Address)
	assert.Equal(t, "wg1", conf.Server.InterfaceName)
	assert.Equal(t, int32(51821), conf.Server.ListenPort)
	assert.True(t, conf.Server.Native)
	assert.Equal(t, "/tmp/wg", conf.Paths.WireguardDir)
	assert.Equal(t, []string{"stun.example.com:3478"}, conf.Client.StunServers)
	assert.True(t, conf.Client.GenerateQR)
}

func TestLoadConfMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.toml")

	conf, err := LoadConf(path, false)
	require.NoError(t, err)
	assert.Equal(t, models.RoadguardConf{}, conf)

	_, err = LoadConf(path, true)
	require.ErrorIs(t, err, models.ErrValidation)
}

func TestLoadConfUnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultConfName)
	require.NoError(t, os.WriteFile(path, []byte("[Server]\nAdress = \"10.9.0.1/24\"\n"), 0o600))

	_, err := LoadConf(path, true)
	require.ErrorIs(t, err, models.ErrValidation)
}

func TestBuildVersionOutput(t *testing.T) {
	assert.Equal(t, "roadguard n/a\nbuild: n/a (n/a)\n\n", BuildVersionOutput("roadguard"))
}
