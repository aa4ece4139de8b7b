package analytics

import (
	"hash/fnv"
	"sync"
	"time"

	"redistics/internal/model"
)

const defaultShardCount = 64

// ipShard is a part of the sharded stat map, with its own mutex.
type ipShard struct {
	stats map[string]*model.IPStat
	mu    sync.RWMutex
}

// IPAggregator rolls monitor events into per-client-address statistics using
// a sharded map for concurrency between the delivery path and readers.
// Growth is unbounded until Clear; the operator owns that tradeoff.
type IPAggregator struct {
	shards     []*ipShard
	shardCount uint32
}

// NewIPAggregator creates an empty sharded aggregator.
func NewIPAggregator() *IPAggregator {
	agg := &IPAggregator{
		shards:     make([]*ipShard, defaultShardCount),
		shardCount: defaultShardCount,
	}
	for i := range agg.shards {
		agg.shards[i] = &ipShard{stats: make(map[string]*model.IPStat)}
	}
	return agg
}

func (a *IPAggregator) getShard(addr string) *ipShard {
	hasher := fnv.New32a()
	hasher.Write([]byte(addr))
	return a.shards[hasher.Sum32()%a.shardCount]
}

// OnEvent updates the stat row for the event's client address, creating it
// lazily on first sight. Called only from the engine's delivery path.
func (a *IPAggregator) OnEvent(ev model.MonitorEvent) {
	shard := a.getShard(ev.ClientIP)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	stat, ok := shard.stats[ev.ClientIP]
	if !ok {
		stat = &model.IPStat{
			Addr:       ev.ClientIP,
			PerCommand: make(map[string]uint64),
		}
		shard.stats[ev.ClientIP] = stat
	}
	stat.Commands++
	stat.Bytes += uint64(len(ev.Raw))
	stat.LastSeen = time.UnixMilli(ev.Timestamp)
	stat.PerCommand[ev.Command]++
}

// Snapshot returns deep copies of every stat row; callers never alias the
// live maps.
func (a *IPAggregator) Snapshot() []model.IPStat {
	var out []model.IPStat
	for _, shard := range a.shards {
		shard.mu.RLock()
		for _, stat := range shard.stats {
			cp := *stat
			cp.PerCommand = make(map[string]uint64, len(stat.PerCommand))
			for cmd, n := range stat.PerCommand {
				cp.PerCommand[cmd] = n
			}
			out = append(out, cp)
		}
		shard.mu.RUnlock()
	}
	return out
}

// Len returns the number of tracked client addresses.
func (a *IPAggregator) Len() int {
	count := 0
	for _, shard := range a.shards {
		shard.mu.RLock()
		count += len(shard.stats)
		shard.mu.RUnlock()
	}
	return count
}

// Clear drops every accumulated row.
func (a *IPAggregator) Clear() {
	for _, shard := range a.shards {
		shard.mu.Lock()
		shard.stats = make(map[string]*model.IPStat)
		shard.mu.Unlock()
	}
}
