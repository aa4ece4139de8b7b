package analytics

import (
	"sort"
	"strconv"
	"strings"

	"redistics/internal/model"
)

// ParseClientList decodes a CLIENT LIST reply, one client per line.
func ParseClientList(raw string) []model.ClientInfo {
	var clients []model.ClientInfo
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := make(map[string]string)
		for _, tok := range strings.Fields(line) {
			if k, v, ok := strings.Cut(tok, "="); ok {
				fields[k] = v
			}
		}
		addr := fields["addr"]
		ip, port := addr, ""
		if i := strings.LastIndexByte(addr, ':'); i >= 0 {
			ip, port = addr[:i], addr[i+1:]
		}
		db, _ := strconv.Atoi(fields["db"])
		clients = append(clients, model.ClientInfo{
			ID:    fields["id"],
			Addr:  addr,
			IP:    ip,
			Port:  port,
			Name:  fields["name"],
			Age:   getU64(fields, "age"),
			Idle:  getU64(fields, "idle"),
			Flags: fields["flags"],
			DB:    db,
			Cmd:   fields["cmd"],
			QBuf:  getU64(fields, "qbuf"),
			OBL:   getU64(fields, "obl"),
			OLL:   getU64(fields, "oll"),
		})
	}
	return clients
}

// ParseCommandStats decodes an INFO commandstats reply, sorted by call
// count descending.
func ParseCommandStats(raw string) []model.CommandStat {
	var stats []model.CommandStat
	for k, v := range infoMap(raw) {
		name, ok := strings.CutPrefix(k, "cmdstat_")
		if !ok {
			continue
		}
		st := model.CommandStat{Command: name}
		for _, part := range strings.Split(v, ",") {
			pk, pv, ok := strings.Cut(part, "=")
			if !ok {
				continue
			}
			switch pk {
			case "calls":
				st.Calls, _ = strconv.ParseUint(pv, 10, 64)
			case "usec":
				st.Usec, _ = strconv.ParseUint(pv, 10, 64)
			case "usec_per_call":
				st.UsecPerCall, _ = strconv.ParseFloat(pv, 64)
			case "rejected_calls":
				st.RejectedCalls, _ = strconv.ParseUint(pv, 10, 64)
			case "failed_calls":
				st.FailedCalls, _ = strconv.ParseUint(pv, 10, 64)
			}
		}
		stats = append(stats, st)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Calls > stats[j].Calls })
	return stats
}

// ParseClusterInfo decodes a CLUSTER INFO reply.
func ParseClusterInfo(raw string) model.ClusterInfo {
	m := infoMap(raw)
	return model.ClusterInfo{
		Enabled:       m["cluster_enabled"] == "1",
		State:         m["cluster_state"],
		SlotsAssigned: getU64(m, "cluster_slots_assigned"),
		SlotsOK:       getU64(m, "cluster_slots_ok"),
		SlotsPFail:    getU64(m, "cluster_slots_pfail"),
		SlotsFail:     getU64(m, "cluster_slots_fail"),
		KnownNodes:    getU64(m, "cluster_known_nodes"),
		Size:          getU64(m, "cluster_size"),
		CurrentEpoch:  getU64(m, "cluster_current_epoch"),
		MyEpoch:       getU64(m, "cluster_my_epoch"),
	}
}

// ParseClusterNodes decodes a CLUSTER NODES reply, one node per line.
func ParseClusterNodes(raw string) []model.ClusterNode {
	var nodes []model.ClusterNode
	for _, line := range strings.Split(raw, "\n") {
		parts := strings.Fields(strings.TrimSpace(line))
		if len(parts) < 8 {
			continue
		}
		masterID := parts[3]
		if masterID == "-" {
			masterID = ""
		}
		pingSent, _ := strconv.ParseUint(parts[4], 10, 64)
		pongRecv, _ := strconv.ParseUint(parts[5], 10, 64)
		epoch, _ := strconv.ParseUint(parts[6], 10, 64)
		var slots []string
		if len(parts) > 8 {
			slots = parts[8:]
		}
		nodes = append(nodes, model.ClusterNode{
			ID:          parts[0],
			Addr:        parts[1],
			Flags:       parts[2],
			MasterID:    masterID,
			PingSent:    pingSent,
			PongRecv:    pongRecv,
			ConfigEpoch: epoch,
			LinkState:   parts[7],
			Slots:       slots,
		})
	}
	return nodes
}

// ParsePersistenceInfo decodes an INFO persistence reply.
func ParsePersistenceInfo(raw string) model.PersistenceInfo {
	m := infoMap(raw)
	rdbTime, _ := strconv.ParseInt(m["rdb_last_bgsave_time_sec"], 10, 64)
	aofTime, _ := strconv.ParseInt(m["aof_last_rewrite_time_sec"], 10, 64)
	return model.PersistenceInfo{
		RDBLastSaveTime:        getU64(m, "rdb_last_save_time"),
		RDBChangesSinceSave:    getU64(m, "rdb_changes_since_last_save"),
		RDBBgsaveInProgress:    m["rdb_bgsave_in_progress"] == "1",
		RDBLastBgsaveStatus:    m["rdb_last_bgsave_status"],
		RDBLastBgsaveTimeSec:   rdbTime,
		AOFEnabled:             m["aof_enabled"] == "1",
		AOFRewriteInProgress:   m["aof_rewrite_in_progress"] == "1",
		AOFLastRewriteTimeSec:  aofTime,
		AOFLastBgrewriteStatus: m["aof_last_bgrewrite_status"],
		AOFCurrentSize:         getU64(m, "aof_current_size"),
		AOFBaseSize:            getU64(m, "aof_base_size"),
	}
}

// ParseCPUStats decodes an INFO cpu reply.
func ParseCPUStats(raw string) model.CPUStats {
	m := infoMap(raw)
	return model.CPUStats{
		UsedCPUSys:          getF64(m, "used_cpu_sys"),
		UsedCPUUser:         getF64(m, "used_cpu_user"),
		UsedCPUSysChildren:  getF64(m, "used_cpu_sys_children"),
		UsedCPUUserChildren: getF64(m, "used_cpu_user_children"),
	}
}

// ParseErrorStats decodes an INFO errorstats reply, sorted by count
// descending.
func ParseErrorStats(raw string) []model.ErrorStat {
	var stats []model.ErrorStat
	for k, v := range infoMap(raw) {
		name, ok := strings.CutPrefix(k, "errorstat_")
		if !ok {
			continue
		}
		var count uint64
		for _, part := range strings.Split(v, ",") {
			if pk, pv, ok := strings.Cut(part, "="); ok && pk == "count" {
				count, _ = strconv.ParseUint(pv, 10, 64)
			}
		}
		stats = append(stats, model.ErrorStat{ErrorType: name, Count: count})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Count > stats[j].Count })
	return stats
}

// ParseMemoryStats flattens the alternating key/value MEMORY STATS reply.
func ParseMemoryStats(reply []interface{}) model.MemoryStats {
	m := make(map[string]interface{}, len(reply)/2)
	for i := 0; i+1 < len(reply); i += 2 {
		k, ok := reply[i].(string)
		if !ok {
			continue
		}
		m[k] = reply[i+1]
	}
	return model.MemoryStats{
		PeakAllocated:      statU64(m, "peak.allocated"),
		TotalAllocated:     statU64(m, "total.allocated"),
		StartupAllocated:   statU64(m, "startup.allocated"),
		ReplicationBacklog: statU64(m, "replication.backlog"),
		ClientsSlaves:      statU64(m, "clients.slaves"),
		ClientsNormal:      statU64(m, "clients.normal"),
		AOFBuffer:          statU64(m, "aof.buffer"),
		LuaCaches:          statU64(m, "lua.caches"),
		HashtableOverhead:  statU64(m, "overhead.hashtable.main"),
		KeysCount:          statU64(m, "keys.count"),
		BytesPerKey:        statU64(m, "keys.bytes-per-key"),
		DatasetBytes:       statU64(m, "dataset.bytes"),
		DatasetPercentage:  statF64(m, "dataset.percentage"),
		PeakPercentage:     statF64(m, "peak.percentage"),
		FragmentationRatio: statF64(m, "allocator-fragmentation.ratio"),
	}
}

func statU64(m map[string]interface{}, key string) uint64 {
	switch v := m[key].(type) {
	case int64:
		if v < 0 {
			return 0
		}
		return uint64(v)
	case string:
		n, _ := strconv.ParseUint(v, 10, 64)
		return n
	case float64:
		if v < 0 {
			return 0
		}
		return uint64(v)
	}
	return 0
}

func statF64(m map[string]interface{}, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	}
	return 0
}
