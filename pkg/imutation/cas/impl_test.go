/*
 * Copyright (c) 2024-present unTill Software Development Group B.V.
 */

package cas

import (
	"os"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/voedger/cqlbatch/pkg/coreutils"
	"github.com/voedger/cqlbatch/pkg/imutation"
)

const casDefaultPort = 9042
const casDefaultHost = "127.0.0.1"

func TestBasicUsage(t *testing.T) {
	if !isCassandra() {
		t.Skip()
	}
	params := CassandraParamsType{
		Hosts:      hosts(),
		Port:       port(),
		NumRetries: retryAttempt,
		Keyspace:   "cqlbatch_test",
	}
	ex, err := Provide(params)
	require.NoError(t, err)
	defer ex.Close()

	require.NoError(t, ex.ExecDDL(
		`CREATE TABLE IF NOT EXISTS tck_records (id text PRIMARY KEY, count int)`))

	imutation.TechnologyCompatibilityKit(t, ex, coreutils.NewITime())
}

func TestProvide_EmptyKeyspace(t *testing.T) {
	_, err := Provide(CassandraParamsType{Hosts: casDefaultHost})
	require.Error(t, err)
}

func TestCassandraParamsType_cqlVersion(t *testing.T) {
	tests := []struct {
		name           string
		cqlVersion     string
		wantCqlVersion string
	}{
		{
			name:           "Should get default",
			cqlVersion:     "",
			wantCqlVersion: "3.0.0",
		},
		{
			name:           "Should get custom",
			cqlVersion:     "1.2.3",
			wantCqlVersion: "1.2.3",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.wantCqlVersion, CassandraParamsType{CQLVersion: test.cqlVersion}.cqlVersion())
		})
	}
}

func TestCassandraParamsType_replication(t *testing.T) {
	require.Equal(t, SimpleWithReplication, CassandraParamsType{}.replication())
	require.Equal(t, "custom", CassandraParamsType{Replication: "custom"}.replication())
}

func TestDCAwareRoundRobinPolicy(t *testing.T) {
	cluster := clusterConfig(CassandraParamsType{Hosts: casDefaultHost, DC: "dc1"})
	require.NotNil(t, cluster.PoolConfig.HostSelectionPolicy)
}

func isCassandra() bool {
	_, ok := os.LookupEnv("CQLBATCH_CASSANDRA")
	return ok
}

func hosts() string {
	value, ok := os.LookupEnv("CQLBATCH_CASSANDRA_HOSTS")
	if !ok {
		return casDefaultHost
	}
	return value
}

func port() int {
	value, ok := os.LookupEnv("CQLBATCH_CASSANDRA_PORT")
	if !ok {
		return casDefaultPort
	}
	result, err := strconv.Atoi(value)
	if err != nil {
		panic(err)
	}
	return result
}
