/*
 * Copyright (c) 2024-present unTill Software Development Group B.V.
 */

package cas

type CassandraParamsType struct {
	// Comma separated list of hosts
	Hosts        string
	Port         int
	Username     string
	Pwd          string
	ProtoVersion int
	CQLVersion   string
	NumRetries   int
	DC           string

	Keyspace string
	// e.g. "{ 'class' : 'SimpleStrategy', 'replication_factor' : 1 }"
	Replication string
}

func (p CassandraParamsType) cqlVersion() string {
	if p.CQLVersion == "" {
		return "3.0.0"
	}
	return p.CQLVersion
}

func (p CassandraParamsType) replication() string {
	if p.Replication == "" {
		return SimpleWithReplication
	}
	return p.Replication
}
