// Package analytics turns raw server diagnostics (INFO sections, CLIENT
// LIST, SLOWLOG, MEMORY STATS) into structured reports, and aggregates the
// live monitor feed into per-client statistics.
package analytics

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"redistics/internal/model"
)

// infoMap flattens "key:value" INFO lines, skipping comments and blanks.
func infoMap(info string) map[string]string {
	m := make(map[string]string)
	for _, line := range strings.Split(info, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if k, v, ok := strings.Cut(line, ":"); ok {
			m[k] = v
		}
	}
	return m
}

func getU64(m map[string]string, key string) uint64 {
	v, _ := strconv.ParseUint(m[key], 10, 64)
	return v
}

func getF64(m map[string]string, key string) float64 {
	v, _ := strconv.ParseFloat(m[key], 64)
	return v
}

// ParseInfo decodes a full INFO reply into the structured view.
func ParseInfo(info string) model.Info {
	m := infoMap(info)

	keyspace := make(map[string]model.KeyspaceDB)
	for k, v := range m {
		if strings.HasPrefix(k, "db") {
			if db, ok := parseKeyspaceDB(v); ok {
				keyspace[k] = db
			}
		}
	}

	masterPort, _ := strconv.Atoi(m["master_port"])
	tcpPort, _ := strconv.Atoi(m["tcp_port"])

	return model.Info{
		Server: model.ServerInfo{
			Version:          m["redis_version"],
			OS:               m["os"],
			UptimeSeconds:    getU64(m, "uptime_in_seconds"),
			ConnectedClients: getU64(m, "connected_clients"),
			TCPPort:          tcpPort,
		},
		Memory: model.MemoryInfo{
			UsedMemory:          getU64(m, "used_memory"),
			UsedMemoryHuman:     m["used_memory_human"],
			UsedMemoryPeak:      getU64(m, "used_memory_peak"),
			UsedMemoryPeakHuman: m["used_memory_peak_human"],
			MaxMemory:           getU64(m, "maxmemory"),
			MaxMemoryHuman:      m["maxmemory_human"],
			FragmentationRatio:  getF64(m, "mem_fragmentation_ratio"),
		},
		Stats: model.StatsInfo{
			TotalConnections: getU64(m, "total_connections_received"),
			TotalCommands:    getU64(m, "total_commands_processed"),
			OpsPerSec:        getU64(m, "instantaneous_ops_per_sec"),
			KeyspaceHits:     getU64(m, "keyspace_hits"),
			KeyspaceMisses:   getU64(m, "keyspace_misses"),
			ExpiredKeys:      getU64(m, "expired_keys"),
			EvictedKeys:      getU64(m, "evicted_keys"),
		},
		Replication: model.ReplicationInfo{
			Role:             m["role"],
			ConnectedSlaves:  getU64(m, "connected_slaves"),
			MasterHost:       m["master_host"],
			MasterPort:       masterPort,
			MasterLinkStatus: m["master_link_status"],
		},
		Keyspace: keyspace,
	}
}

// parseKeyspaceDB decodes one "keys=N,expires=N,avg_ttl=N" value.
func parseKeyspaceDB(value string) (model.KeyspaceDB, bool) {
	var db model.KeyspaceDB
	found := false
	for _, part := range strings.Split(value, ",") {
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			continue
		}
		switch k {
		case "keys":
			db.Keys = n
			found = true
		case "expires":
			db.Expires = n
		case "avg_ttl":
			db.AvgTTL = n
		}
	}
	return db, found
}

// GetInfo fetches and parses the target server's INFO reply.
func GetInfo(ctx context.Context, rdb *redis.Client) (model.Info, error) {
	info, err := rdb.Info(ctx).Result()
	if err != nil {
		return model.Info{}, fmt.Errorf("INFO failed: %w", err)
	}
	return ParseInfo(info), nil
}

// TotalKeys sums the keyspace key counts across all logical databases.
// Servers that omit the keyspace section fall back to DBSIZE.
func TotalKeys(ctx context.Context, rdb *redis.Client) (uint64, error) {
	info, err := rdb.Info(ctx, "keyspace").Result()
	if err != nil {
		return 0, fmt.Errorf("INFO keyspace failed: %w", err)
	}
	var total uint64
	found := false
	for k, v := range infoMap(info) {
		if !strings.HasPrefix(k, "db") {
			continue
		}
		if db, ok := parseKeyspaceDB(v); ok {
			total += db.Keys
			found = true
		}
	}
	if !found {
		n, err := rdb.DBSize(ctx).Result()
		if err != nil {
			return 0, fmt.Errorf("DBSIZE failed: %w", err)
		}
		if n > 0 {
			total = uint64(n)
		}
	}
	return total, nil
}

// GetCapabilities probes what the server is and which diagnostic command
// families it supports.
func GetCapabilities(ctx context.Context, rdb *redis.Client) (model.Capabilities, error) {
	info, err := rdb.Info(ctx).Result()
	if err != nil {
		return model.Capabilities{}, fmt.Errorf("INFO failed: %w", err)
	}
	m := infoMap(info)

	var totalKeys uint64
	for k, v := range m {
		if strings.HasPrefix(k, "db") {
			if db, ok := parseKeyspaceDB(v); ok {
				totalKeys += db.Keys
			}
		}
	}

	version := m["redis_version"]
	serverType := "Redis"
	if strings.Contains(strings.ToLower(version), "valkey") ||
		strings.Contains(strings.ToLower(m["server_name"]), "valkey") ||
		strings.Contains(strings.ToLower(m["os"]), "valkey") {
		serverType = "Valkey"
	}

	clusterEnabled := m["cluster_enabled"] == "1"
	clusterMode := "standalone"
	if clusterInfo, err := rdb.ClusterInfo(ctx).Result(); err == nil {
		state := "unknown"
		for k, v := range infoMap(clusterInfo) {
			if k == "cluster_state" {
				state = v
			}
		}
		if clusterEnabled {
			clusterMode = fmt.Sprintf("enabled (%s)", state)
		}
	} else if clusterEnabled {
		clusterMode = "enabled (connection may be to a node)"
	}

	role := m["role"]
	supportsMemory := rdb.Do(ctx, "memory", "doctor").Err() == nil
	supportsLatency := rdb.Do(ctx, "latency", "doctor").Err() == nil

	maxClients := getU64(m, "maxclients")
	if maxClients == 0 {
		maxClients = 10000
	}

	return model.Capabilities{
		ServerType:      serverType,
		Version:         version,
		ClusterEnabled:  clusterEnabled,
		ClusterMode:     clusterMode,
		SupportsMemory:  supportsMemory,
		SupportsLatency: supportsLatency,
		IsReadReplica:   role == "slave" || role == "replica",
		MaxClients:      maxClients,
		TotalKeys:       totalKeys,
	}, nil
}
