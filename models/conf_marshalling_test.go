package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const testConfVal = `[Interface]
PrivateKey = cHJpdmF0ZQ==
Address = 1.1.1.1
Address = 1:1::1
DNS = 9.9.9.9, 1.1.1.1

[Peer]
PublicKey = cHVibGlj
AllowedIPs = 2.2.2.2/24, 2:2:2::2/120
Endpoint = test

[Peer]
PublicKey = cHVibGlj
Endpoint = testing
PersistentKeepalive = 12

`

func TestBasicConfMarshalling(t *testing.T) {
	testConf := ClientConfig{
		Intrfc: Interface{
			Priv:    "cHJpdmF0ZQ==",
			Address: []string{"1.1.1.1", "1:1::1"},
			Dns:     []string{"9.9.9.9", "1.1.1.1"},
		},
		Config: Config{
			Peer: []Peer{
				{
					Pub:      "cHVibGlj",
					Ips:      []string{"2.2.2.2/24", "2:2:2::2/120"},
					Endpoint: "test",
				},
				{
					Pub:       "cHVibGlj",
					Endpoint:  "testing",
					KeepAlive: 12,
				},
			},
		},
	}

	val, err := testConf.MarshalText()
	require.NoError(t, err)
	require.Equal(t, testConfVal, string(val))
}

func TestServerConfMarshallingSkipsUnset(t *testing.T) {
	conf := ServerConfig{
		Intrfc: ServerInterface{
			Address: []string{"10.0.0.1/24"},
			Priv:    "a2V5",
		},
	}

	val, err := conf.MarshalText()
	require.NoError(t, err)
	require.Equal(t, "[Interface]\nAddress = 10.0.0.1/24\nPrivateKey = a2V5\n\n", string(val))
}
