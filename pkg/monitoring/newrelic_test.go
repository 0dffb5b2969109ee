package monitoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DisabledWithoutLicense(t *testing.T) {
	app, err := New(Config{AppName: "bike-sharing", Enabled: true})
	require.NoError(t, err)
	assert.False(t, app.IsEnabled())
	assert.Nil(t, app.StartTransaction("open ride"))
}

func TestDisabledApp_RecordsAreNoOps(t *testing.T) {
	app := Disabled()

	assert.NotPanics(t, func() {
		app.RecordRideOpened(1, 2)
		app.RecordRideClosed(1, 2, 3, 25*time.Hour)
		app.RecordRejection("BIKE_IN_USE")
		app.RecordDatabasePoolStats(map[string]interface{}{"open_connections": 3})
		app.RecordRedisPoolStats(map[string]interface{}{"hits": uint32(4)})
		app.Shutdown(time.Second)
	})
}

func TestNilApp_IsDisabled(t *testing.T) {
	var app *NewRelicApp
	assert.False(t, app.IsEnabled())
}
