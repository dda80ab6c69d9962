package controller

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/dro.go/pkg/l1"
)

func TestNewEnv(t *testing.T) {
	conf := NewConfig()
	conf.Info.Ref = l1.ControllerRef{Type: "dro", ID: "bench"}
	conf.MQTTBrokerURL = ""
	conf.WebSocketAddr = "127.0.0.1:8081"
	env, err := conf.NewEnv()
	require.NoError(t, err)
	require.Equal(t, 1, env.Registrar.Len())
	require.Equal(t, []string{"ws://127.0.0.1:8081/l1"}, env.RegistryURLs)

	conf.MQTTBrokerURL = "mqtt://localhost:1883/dro/"
	env, err = conf.NewEnv()
	require.NoError(t, err)
	require.Equal(t, 2, env.Registrar.Len())
	require.Equal(t, "mqtt://localhost:1883/dro/", env.RegistryURLs[0])
}

func TestNewEnvErrors(t *testing.T) {
	conf := NewConfig()
	conf.Info.Ref = l1.ControllerRef{Type: "dro"}
	_, err := conf.NewEnv()
	require.Error(t, err)

	conf.Info.Ref.ID = "bench"
	conf.MQTTBrokerURL, conf.WebSocketAddr = "", ""
	_, err = conf.NewEnv()
	require.Error(t, err)
}
