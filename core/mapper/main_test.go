package mapper

import (
	"context"
	"log"
	"testing"

	"github.com/siherrmann/tripler/core/uri"
	"github.com/siherrmann/tripler/database"
	"github.com/siherrmann/tripler/helper"
	loadSql "github.com/siherrmann/tripler/sql"
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

func initMapper(t *testing.T) (*Mapper, *database.TriplesDBHandler) {
	helper.SetTestDatabaseConfigEnvs(t, dbPort)
	dbConfig, err := helper.NewDatabaseConfiguration()
	require.NoError(t, err, "failed to create database configuration")
	db := helper.NewTestDatabase(dbConfig)

	err = loadSql.Init(db.Instance)
	require.NoError(t, err)

	triples, err := database.NewTriplesDBHandler(db, 384, true)
	require.NoError(t, err)

	registry := uri.NewRegistry("")
	uris := uri.NewGenerator(registry, nil)

	return NewMapper(db, triples, registry, uris), triples
}
