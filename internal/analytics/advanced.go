package analytics

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"redistics/internal/model"
)

// MemoryReport pairs MEMORY STATS with the MEMORY DOCTOR verdict.
type MemoryReport struct {
	Stats  *model.MemoryStats `json:"memoryStats,omitempty"`
	Doctor string             `json:"memoryDoctor,omitempty"`
}

// LatencyEvent is one LATENCY LATEST record.
type LatencyEvent struct {
	Event     string `json:"event"`
	Timestamp int64  `json:"timestamp"`
	LatestMs  int64  `json:"latestMs"`
	MaxMs     int64  `json:"maxMs"`
}

// LatencyReport pairs LATENCY LATEST with the LATENCY DOCTOR verdict.
type LatencyReport struct {
	Doctor string         `json:"latencyDoctor,omitempty"`
	Events []LatencyEvent `json:"events"`
}

// GetSlowLog fetches up to n SLOWLOG entries.
func GetSlowLog(ctx context.Context, rdb *redis.Client, n int64) ([]model.SlowLogEntry, error) {
	logs, err := rdb.SlowLogGet(ctx, n).Result()
	if err != nil {
		return nil, fmt.Errorf("SLOWLOG GET failed: %w", err)
	}
	entries := make([]model.SlowLogEntry, 0, len(logs))
	for _, l := range logs {
		e := model.SlowLogEntry{
			ID:         uint64(l.ID),
			Timestamp:  uint64(l.Time.Unix()),
			DurationUs: uint64(l.Duration.Microseconds()),
			ClientAddr: l.ClientAddr,
			ClientName: l.ClientName,
		}
		if len(l.Args) > 0 {
			e.Command = strings.ToUpper(l.Args[0])
			e.Args = l.Args[1:]
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// GetMemoryStats fetches and flattens the MEMORY STATS reply.
func GetMemoryStats(ctx context.Context, rdb *redis.Client) (model.MemoryStats, error) {
	reply, err := rdb.Do(ctx, "memory", "stats").Result()
	if err != nil {
		return model.MemoryStats{}, fmt.Errorf("MEMORY STATS failed: %w", err)
	}
	arr, ok := reply.([]interface{})
	if !ok {
		return model.MemoryStats{}, fmt.Errorf("MEMORY STATS: unexpected reply type %T", reply)
	}
	return ParseMemoryStats(arr), nil
}

// GetMemoryReport bundles MEMORY STATS with MEMORY DOCTOR, best-effort.
func GetMemoryReport(ctx context.Context, rdb *redis.Client) MemoryReport {
	var report MemoryReport
	if stats, err := GetMemoryStats(ctx, rdb); err == nil {
		report.Stats = &stats
	}
	if doctor, err := rdb.Do(ctx, "memory", "doctor").Text(); err == nil {
		report.Doctor = doctor
	}
	return report
}

// GetLatencyReport bundles LATENCY LATEST with LATENCY DOCTOR, best-effort.
func GetLatencyReport(ctx context.Context, rdb *redis.Client) LatencyReport {
	report := LatencyReport{Events: []LatencyEvent{}}
	if doctor, err := rdb.Do(ctx, "latency", "doctor").Text(); err == nil {
		report.Doctor = doctor
	}
	reply, err := rdb.Do(ctx, "latency", "latest").Result()
	if err != nil {
		return report
	}
	rows, ok := reply.([]interface{})
	if !ok {
		return report
	}
	for _, row := range rows {
		cols, ok := row.([]interface{})
		if !ok || len(cols) < 4 {
			continue
		}
		name, _ := cols[0].(string)
		report.Events = append(report.Events, LatencyEvent{
			Event:     name,
			Timestamp: toI64(cols[1]),
			LatestMs:  toI64(cols[2]),
			MaxMs:     toI64(cols[3]),
		})
	}
	return report
}

func toI64(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case float64:
		return int64(n)
	}
	return 0
}

// GetAdvancedAnalytics gathers every diagnostic the server answers.
// Individual failures leave their section empty instead of failing the
// bundle, so a locked-down or older server still returns what it can.
func GetAdvancedAnalytics(ctx context.Context, rdb *redis.Client) model.AdvancedAnalytics {
	out := model.AdvancedAnalytics{
		SlowLog:      []model.SlowLogEntry{},
		CommandStats: []model.CommandStat{},
		ClusterNodes: []model.ClusterNode{},
		ErrorStats:   []model.ErrorStat{},
	}

	if stats, err := GetMemoryStats(ctx, rdb); err == nil {
		out.MemoryStats = &stats
	}
	if doctor, err := rdb.Do(ctx, "memory", "doctor").Text(); err == nil {
		out.MemoryDoctor = doctor
	}
	if slow, err := GetSlowLog(ctx, rdb, 50); err == nil {
		out.SlowLog = slow
	}
	if raw, err := rdb.Info(ctx, "commandstats").Result(); err == nil {
		out.CommandStats = ParseCommandStats(raw)
	}
	if raw, err := rdb.ClusterInfo(ctx).Result(); err == nil {
		ci := ParseClusterInfo(raw)
		out.ClusterInfo = &ci
		if ci.Enabled {
			if nodes, err := rdb.ClusterNodes(ctx).Result(); err == nil {
				out.ClusterNodes = ParseClusterNodes(nodes)
			}
		}
	}
	if raw, err := rdb.Info(ctx, "persistence").Result(); err == nil {
		pi := ParsePersistenceInfo(raw)
		out.Persistence = &pi
	}
	if raw, err := rdb.Info(ctx, "cpu").Result(); err == nil {
		cpu := ParseCPUStats(raw)
		out.CPUStats = &cpu
	}
	if raw, err := rdb.Info(ctx, "errorstats").Result(); err == nil {
		out.ErrorStats = ParseErrorStats(raw)
	}
	if doctor, err := rdb.Do(ctx, "latency", "doctor").Text(); err == nil {
		out.LatencyDoctor = doctor
	}
	return out
}
