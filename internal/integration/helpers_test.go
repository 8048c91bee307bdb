//go:build integration

package integration_test

import (
	"context"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/geoscore/bfg-harvest/internal/adapter/netcdf"
)

// startKafka launches a single-node Kafka container and returns its broker
// address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx,
		"confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("bfg-harvest-test"),
	)
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() {
		terminateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = container.Terminate(terminateCtx)
	})

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err, "resolve kafka brokers")
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// createTopic creates a single-partition topic on the broker's controller.
func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer controllerConn.Close()

	require.NoError(t, controllerConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// writeFixtures writes one synthetic bfg file and a matching weights file
// into dir and returns their paths. The tmp2m field is uniform so the
// expected statistics are exact.
func writeFixtures(t *testing.T, dir string, tmp2m float64) (bfgPath, weightsPath string) {
	t.Helper()

	lat := []float64{-45, 0, 45}
	lon := []float64{0, 90, 180, 270}
	base := time.Date(2024, time.January, 1, 6, 0, 0, 0, time.UTC)
	times := []time.Time{base, base.Add(6 * time.Hour)}

	plane := make([][]float64, len(lat))
	for y := range plane {
		row := make([]float64, len(lon))
		for x := range row {
			row[x] = tmp2m
		}
		plane[y] = row
	}

	bfgPath = dir + "/bfg_fhr06.nc"
	require.NoError(t, netcdf.Write(bfgPath, netcdf.FileSpec{
		Lat:   lat,
		Lon:   lon,
		Times: times,
		Fields: map[string]netcdf.FieldSpec{
			"tmp2m": {
				Values:   [][][]float64{plane, plane},
				Units:    "K",
				LongName: "2m air temperature",
			},
		},
	}))

	area := make([][]float64, len(lat))
	for y := range area {
		row := make([]float64, len(lon))
		for x := range row {
			row[x] = 1
		}
		area[y] = row
	}
	weightsPath = dir + "/gridcell-area.nc"
	require.NoError(t, netcdf.WriteWeights(weightsPath, lat, lon, area))

	return bfgPath, weightsPath
}
