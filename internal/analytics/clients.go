package analytics

import (
	"context"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"redistics/internal/model"
)

const (
	idleThresholdSec = 300
	bigBufferBytes   = 1024 * 1024
	highIdleShare    = 0.5
	mostlyIdleShare  = 0.95
	minConnectedAgeS = 60
)

// GetClientList fetches and parses CLIENT LIST.
func GetClientList(ctx context.Context, rdb *redis.Client) ([]model.ClientInfo, error) {
	raw, err := rdb.ClientList(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("CLIENT LIST failed: %w", err)
	}
	return ParseClientList(raw), nil
}

// AnalyzeClients summarizes what the connected client set is doing:
// long-idle connections, oversized buffers, clients grouped by last
// command, plus fleet-wide suspicious patterns and per-client anomalies.
func AnalyzeClients(ctx context.Context, rdb *redis.Client) (model.ClientAnalysis, error) {
	clients, err := GetClientList(ctx, rdb)
	if err != nil {
		return model.ClientAnalysis{}, err
	}
	return analyzeClientSet(clients), nil
}

func analyzeClientSet(clients []model.ClientInfo) model.ClientAnalysis {
	analysis := model.ClientAnalysis{
		TotalClients:       uint64(len(clients)),
		IdleClients:        []model.IdleClient{},
		HighMemoryClients:  []model.ClientMemoryInfo{},
		ClientsByCommand:   []model.CommandClientInfo{},
		SuspiciousPatterns: []model.SuspiciousPattern{},
		Anomalies:          []model.ClientAnomaly{},
	}

	byCommand := make(map[string]*model.CommandClientInfo)
	var idleCount, connectOnly int
	var connectOnlyAddrs, idleAddrs []string

	for _, c := range clients {
		if c.Idle > idleThresholdSec {
			idleCount++
			idleAddrs = append(idleAddrs, c.Addr)
			analysis.IdleClients = append(analysis.IdleClients, model.IdleClient{
				ID:               c.ID,
				Addr:             c.Addr,
				IdleSeconds:      c.Idle,
				LastCommand:      c.Cmd,
				ConnectedSeconds: c.Age,
			})
		}
		if c.QBuf > bigBufferBytes || c.OBL > bigBufferBytes {
			analysis.HighMemoryClients = append(analysis.HighMemoryClients, model.ClientMemoryInfo{
				ID:          c.ID,
				Addr:        c.Addr,
				OutputBytes: c.OBL,
				QueryBytes:  c.QBuf,
			})
		}
		cmd := c.Cmd
		if cmd == "" {
			cmd = "(none)"
		}
		group := byCommand[cmd]
		if group == nil {
			group = &model.CommandClientInfo{Command: cmd}
			byCommand[cmd] = group
		}
		group.ClientCount++
		group.ClientIPs = append(group.ClientIPs, c.IP)

		if (c.Cmd == "" || c.Cmd == "NULL") && c.Age > minConnectedAgeS {
			connectOnly++
			connectOnlyAddrs = append(connectOnlyAddrs, c.Addr)
		}
		if c.Age > 0 && float64(c.Idle)/float64(c.Age) > mostlyIdleShare && c.Age > idleThresholdSec {
			analysis.Anomalies = append(analysis.Anomalies, model.ClientAnomaly{
				AnomalyType: "mostly_idle",
				ClientAddr:  c.Addr,
				Details: fmt.Sprintf("idle %ds of %ds connected (%.0f%%)",
					c.Idle, c.Age, float64(c.Idle)/float64(c.Age)*100),
				Severity: "warning",
			})
		}
	}

	for _, group := range byCommand {
		analysis.ClientsByCommand = append(analysis.ClientsByCommand, *group)
	}
	sort.Slice(analysis.ClientsByCommand, func(i, j int) bool {
		return analysis.ClientsByCommand[i].ClientCount > analysis.ClientsByCommand[j].ClientCount
	})
	sort.Slice(analysis.IdleClients, func(i, j int) bool {
		return analysis.IdleClients[i].IdleSeconds > analysis.IdleClients[j].IdleSeconds
	})

	if connectOnly > 0 {
		analysis.SuspiciousPatterns = append(analysis.SuspiciousPatterns, model.SuspiciousPattern{
			PatternType:     "connect_only",
			Severity:        "warning",
			Description:     fmt.Sprintf("%d client(s) connected over a minute ago without issuing commands", connectOnly),
			AffectedClients: connectOnlyAddrs,
			Recommendation:  "verify these connections belong to known applications; consider a client timeout",
		})
	}
	if len(clients) > 0 && float64(idleCount)/float64(len(clients)) > highIdleShare {
		analysis.SuspiciousPatterns = append(analysis.SuspiciousPatterns, model.SuspiciousPattern{
			PatternType:     "high_idle_ratio",
			Severity:        "warning",
			Description:     fmt.Sprintf("%d of %d clients idle beyond %ds", idleCount, len(clients), idleThresholdSec),
			AffectedClients: idleAddrs,
			Recommendation:  "check connection pool sizing; idle pools waste server file descriptors",
		})
	}
	return analysis
}
