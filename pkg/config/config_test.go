package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ValoresPorDefecto(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, 5, cfg.Store.TxMaxAttempts)
	assert.Equal(t, 500, cfg.Store.TxMaxWrites)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "", cfg.MQ.Host, "sin MQ_HOST las notificaciones quedan en log")
}

func TestLoad_LeeVariablesDeEntorno(t *testing.T) {
	t.Setenv("STORE_DRIVER", "MEMORY")
	t.Setenv("STORE_TX_MAX_WRITES", "20")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("MQ_TLS", "true")
	t.Setenv("CENTRAL_WAREHOUSE_ID", "central")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, 20, cfg.Store.TxMaxWrites)
	assert.Equal(t, "0.0.0.0:9090", cfg.HTTP.Addr())
	assert.True(t, cfg.MQ.TLS)
	assert.Equal(t, "central", cfg.App.CentralWarehouseID)
}

func TestLoad_DriverInvalido(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mongo")
	_, err := Load()
	assert.Error(t, err)
}

func TestDBConfig_DSNEscapaPassword(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss/word", DBName: "materiales", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss%2Fword@db:5432/materiales?sslmode=disable", c.ConnectionString())

	c.DatabaseURL = "postgres://otro"
	assert.Equal(t, "postgres://otro", c.ConnectionString())
}

func TestMQConfig_URL(t *testing.T) {
	c := MQConfig{Host: "mq", Port: 5671, User: "u", Password: "p", VHost: "/prod", TLS: true}
	assert.Equal(t, "amqps://u:p@mq:5671/prod", c.URL())

	c.TLS, c.VHost = false, "/"
	assert.Equal(t, "amqp://u:p@mq:5671/", c.URL())
}
