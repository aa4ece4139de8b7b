package analytics

import (
	"testing"
)

const sampleInfo = "# Server\r\n" +
	"redis_version:7.2.4\r\n" +
	"os:Linux 6.1.0 x86_64\r\n" +
	"tcp_port:6379\r\n" +
	"uptime_in_seconds:86422\r\n" +
	"# Clients\r\n" +
	"connected_clients:12\r\n" +
	"# Memory\r\n" +
	"used_memory:1048576\r\n" +
	"used_memory_human:1.00M\r\n" +
	"used_memory_peak:2097152\r\n" +
	"maxmemory:0\r\n" +
	"mem_fragmentation_ratio:1.25\r\n" +
	"# Stats\r\n" +
	"total_connections_received:100\r\n" +
	"total_commands_processed:5000\r\n" +
	"instantaneous_ops_per_sec:42\r\n" +
	"keyspace_hits:900\r\n" +
	"keyspace_misses:100\r\n" +
	"expired_keys:7\r\n" +
	"evicted_keys:0\r\n" +
	"# Replication\r\n" +
	"role:master\r\n" +
	"connected_slaves:1\r\n" +
	"# Keyspace\r\n" +
	"db0:keys=120,expires=10,avg_ttl=3600000\r\n" +
	"db2:keys=5,expires=0,avg_ttl=0\r\n"

func TestParseInfo(t *testing.T) {
	info := ParseInfo(sampleInfo)

	if info.Server.Version != "7.2.4" {
		t.Errorf("version = %q, want 7.2.4", info.Server.Version)
	}
	if info.Server.TCPPort != 6379 {
		t.Errorf("tcp port = %d, want 6379", info.Server.TCPPort)
	}
	if info.Memory.UsedMemory != 1048576 {
		t.Errorf("used_memory = %d, want 1048576", info.Memory.UsedMemory)
	}
	if info.Memory.FragmentationRatio != 1.25 {
		t.Errorf("fragmentation = %v, want 1.25", info.Memory.FragmentationRatio)
	}
	if info.Stats.TotalCommands != 5000 {
		t.Errorf("total commands = %d, want 5000", info.Stats.TotalCommands)
	}
	if info.Replication.Role != "master" || info.Replication.ConnectedSlaves != 1 {
		t.Errorf("replication = %+v", info.Replication)
	}
	if len(info.Keyspace) != 2 {
		t.Fatalf("keyspace has %d dbs, want 2", len(info.Keyspace))
	}
	db0 := info.Keyspace["db0"]
	if db0.Keys != 120 || db0.Expires != 10 || db0.AvgTTL != 3600000 {
		t.Errorf("db0 = %+v", db0)
	}
}

func TestParseKeyspaceDBMalformed(t *testing.T) {
	if _, ok := parseKeyspaceDB("not-a-keyspace-line"); ok {
		t.Error("malformed keyspace value should not parse")
	}
	if db, ok := parseKeyspaceDB("keys=9,expires=bogus"); !ok || db.Keys != 9 {
		t.Errorf("partial keyspace value = %+v ok=%v", db, ok)
	}
}

func TestParseClientList(t *testing.T) {
	raw := "id=3 addr=10.0.0.5:50000 name=app1 age=500 idle=400 flags=N db=0 cmd=get qbuf=26 obl=0 oll=0\n" +
		"id=4 addr=10.0.0.6:50001 name= age=10 idle=0 flags=N db=2 cmd=client|list qbuf=26 obl=0 oll=0\n"

	clients := ParseClientList(raw)
	if len(clients) != 2 {
		t.Fatalf("parsed %d clients, want 2", len(clients))
	}
	c := clients[0]
	if c.ID != "3" || c.IP != "10.0.0.5" || c.Port != "50000" {
		t.Errorf("client 0 = %+v", c)
	}
	if c.Idle != 400 || c.Cmd != "get" {
		t.Errorf("client 0 idle/cmd = %d/%q", c.Idle, c.Cmd)
	}
	if clients[1].DB != 2 || clients[1].Cmd != "client|list" {
		t.Errorf("client 1 = %+v", clients[1])
	}
}

func TestParseCommandStats(t *testing.T) {
	raw := "# Commandstats\r\n" +
		"cmdstat_get:calls=100,usec=2500,usec_per_call=25.00,rejected_calls=0,failed_calls=1\r\n" +
		"cmdstat_set:calls=300,usec=9000,usec_per_call=30.00,rejected_calls=2,failed_calls=0\r\n"

	stats := ParseCommandStats(raw)
	if len(stats) != 2 {
		t.Fatalf("parsed %d stats, want 2", len(stats))
	}
	// Sorted by calls descending, so set first.
	if stats[0].Command != "set" || stats[0].Calls != 300 || stats[0].RejectedCalls != 2 {
		t.Errorf("stats[0] = %+v", stats[0])
	}
	if stats[1].Command != "get" || stats[1].UsecPerCall != 25.0 || stats[1].FailedCalls != 1 {
		t.Errorf("stats[1] = %+v", stats[1])
	}
}

func TestParseClusterNodes(t *testing.T) {
	raw := "07c3 10.0.0.1:6379@16379 myself,master - 0 1690000000000 1 connected 0-5460\n" +
		"a9f2 10.0.0.2:6379@16379 slave 07c3 0 1690000000001 1 connected\n" +
		"short line\n"

	nodes := ParseClusterNodes(raw)
	if len(nodes) != 2 {
		t.Fatalf("parsed %d nodes, want 2", len(nodes))
	}
	if nodes[0].ID != "07c3" || nodes[0].MasterID != "" {
		t.Errorf("node 0 = %+v", nodes[0])
	}
	if len(nodes[0].Slots) != 1 || nodes[0].Slots[0] != "0-5460" {
		t.Errorf("node 0 slots = %v", nodes[0].Slots)
	}
	if nodes[1].MasterID != "07c3" || nodes[1].LinkState != "connected" {
		t.Errorf("node 1 = %+v", nodes[1])
	}
}

func TestParseErrorStats(t *testing.T) {
	raw := "errorstat_ERR:count=3\r\nerrorstat_WRONGTYPE:count=12\r\n"
	stats := ParseErrorStats(raw)
	if len(stats) != 2 {
		t.Fatalf("parsed %d error stats, want 2", len(stats))
	}
	if stats[0].ErrorType != "WRONGTYPE" || stats[0].Count != 12 {
		t.Errorf("stats[0] = %+v", stats[0])
	}
}

func TestParseMemoryStats(t *testing.T) {
	reply := []interface{}{
		"peak.allocated", int64(2097152),
		"total.allocated", int64(1048576),
		"keys.count", int64(125),
		"dataset.percentage", "81.5",
		"allocator-fragmentation.ratio", float64(1.1),
	}
	stats := ParseMemoryStats(reply)
	if stats.PeakAllocated != 2097152 || stats.TotalAllocated != 1048576 {
		t.Errorf("allocated = %d/%d", stats.PeakAllocated, stats.TotalAllocated)
	}
	if stats.KeysCount != 125 {
		t.Errorf("keys count = %d, want 125", stats.KeysCount)
	}
	if stats.DatasetPercentage != 81.5 {
		t.Errorf("dataset pct = %v, want 81.5", stats.DatasetPercentage)
	}
	if stats.FragmentationRatio != 1.1 {
		t.Errorf("fragmentation = %v, want 1.1", stats.FragmentationRatio)
	}
}

func TestParsePersistenceInfo(t *testing.T) {
	raw := "rdb_changes_since_last_save:14\r\n" +
		"rdb_bgsave_in_progress:0\r\n" +
		"rdb_last_save_time:1690000000\r\n" +
		"rdb_last_bgsave_status:ok\r\n" +
		"rdb_last_bgsave_time_sec:-1\r\n" +
		"aof_enabled:1\r\n" +
		"aof_rewrite_in_progress:0\r\n" +
		"aof_last_rewrite_time_sec:3\r\n" +
		"aof_last_bgrewrite_status:ok\r\n"

	pi := ParsePersistenceInfo(raw)
	if pi.RDBChangesSinceSave != 14 || pi.RDBLastBgsaveTimeSec != -1 {
		t.Errorf("rdb = %+v", pi)
	}
	if !pi.AOFEnabled || pi.AOFLastRewriteTimeSec != 3 {
		t.Errorf("aof = %+v", pi)
	}
}
