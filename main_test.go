package tripler

import (
	"context"
	"log"
	"testing"

	"github.com/siherrmann/tripler/helper"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
)

var dbPort string

func TestMain(m *testing.M) {
	var teardown func(ctx context.Context, opts ...testcontainers.TerminateOption) error
	var err error
	teardown, dbPort, err = helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("error starting postgres container: %v", err)
	}

	m.Run()

	if teardown != nil && teardown(context.Background()) != nil {
		log.Fatalf("error tearing down postgres container: %v", err)
	}
}

func initTripler(t *testing.T) *Tripler {
	helper.SetTestDatabaseConfigEnvs(t, dbPort)
	dbConfig, err := helper.NewDatabaseConfiguration()
	require.NoError(t, err, "failed to create database configuration")

	tripler, err := NewTripler(dbConfig, 384)
	require.NoError(t, err)
	require.NotNil(t, tripler)

	t.Cleanup(func() {
		tripler.Close()
	})

	return tripler
}
