/*
 * Copyright (c) 2024-present unTill Software Development Group B.V.
 */

package cas

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gocql/gocql"
	"github.com/untillpro/goutils/logger"

	"github.com/voedger/cqlbatch/pkg/imutation"
)

type casExecutorType struct {
	session *gocql.Session
}

func clusterConfig(params CassandraParamsType) *gocql.ClusterConfig {
	cluster := gocql.NewCluster(strings.Split(params.Hosts, ",")...)
	if params.Port > 0 {
		cluster.Port = params.Port
	}
	cluster.Consistency = gocql.Quorum
	cluster.ConnectTimeout = ConnectionTimeout
	cluster.Timeout = ConnectionTimeout
	cluster.RetryPolicy = &gocql.SimpleRetryPolicy{NumRetries: params.NumRetries}
	cluster.CQLVersion = params.cqlVersion()
	if params.ProtoVersion > 0 {
		cluster.ProtoVersion = params.ProtoVersion
	}
	if params.Username != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{Username: params.Username, Password: params.Pwd}
	}
	if params.DC != "" {
		cluster.PoolConfig.HostSelectionPolicy = gocql.DCAwareRoundRobinPolicy(params.DC)
	}
	return cluster
}

func newCasExecutor(params CassandraParamsType) (*casExecutorType, error) {
	cluster := clusterConfig(params)

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("can't connect to cluster: %w", err)
	}
	err = session.Query(fmt.Sprintf("CREATE KEYSPACE IF NOT EXISTS %s WITH replication = %s",
		params.Keyspace, params.replication())).Exec()
	session.Close()
	if err != nil {
		return nil, fmt.Errorf("can't create keyspace %s: %w", params.Keyspace, err)
	}

	cluster.Keyspace = params.Keyspace
	session, err = cluster.CreateSession()
	if err != nil {
		// notest
		return nil, fmt.Errorf("can't connect to keyspace %s: %w", params.Keyspace, err)
	}
	return &casExecutorType{session: session}, nil
}

func (e *casExecutorType) Execute(ctx context.Context, stmt imutation.Statement) error {
	cql, values := stmt.CQL()
	if logger.IsVerbose() {
		logger.Verbose("cas execute:", cql)
	}
	return e.session.Query(cql, values...).WithContext(ctx).Exec()
}

func (e *casExecutorType) ExecuteBatch(ctx context.Context, stmts []imutation.Statement) error {
	// logged batch is the store's atomic primitive; atomicity of a commit is
	// exactly as strong as this primitive
	batch := e.session.NewBatch(gocql.LoggedBatch).WithContext(ctx)
	for _, stmt := range stmts {
		cql, values := stmt.CQL()
		batch.Query(cql, values...)
	}
	if logger.IsVerbose() {
		logger.Verbose("cas execute batch:", imutation.RenderBatch(stmts))
	}
	return e.session.ExecuteBatch(batch)
}

func (e *casExecutorType) Get(ctx context.Context, table imutation.TableDef, key map[string]interface{}) (imutation.Row, error) {
	cql, values := imutation.SelectCQL(table, key)
	row := imutation.Row{}
	err := e.session.Query(cql, values...).WithContext(ctx).MapScan(row)
	if err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return nil, imutation.ErrNotFound
		}
		return nil, err
	}
	return row, nil
}

func (e *casExecutorType) ExecDDL(ddl string) error {
	return e.session.Query(ddl).Exec()
}

func (e *casExecutorType) Close() {
	e.session.Close()
}
