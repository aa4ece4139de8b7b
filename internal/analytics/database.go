package analytics

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"

	"redistics/internal/model"
)

const (
	defaultSampleSize = 1000
	topKeysLimit      = 20
)

// AnalyzeDatabase samples up to sampleSize keys via SCAN and reports type
// distribution, memory by type, namespace rollups, expiry buckets and the
// heaviest sampled keys. MEMORY USAGE is best-effort and counts as zero on
// servers that refuse it.
func AnalyzeDatabase(ctx context.Context, rdb *redis.Client, sampleSize int) (model.DatabaseAnalysis, error) {
	if sampleSize <= 0 {
		sampleSize = defaultSampleSize
	}

	totalKeys, err := TotalKeys(ctx, rdb)
	if err != nil {
		return model.DatabaseAnalysis{}, err
	}
	var totalMemory uint64
	if raw, err := rdb.Info(ctx, "memory").Result(); err == nil {
		totalMemory = getU64(infoMap(raw), "used_memory")
	}

	var (
		typeCounts  = make(map[string]uint64)
		typeMemory  = make(map[string]uint64)
		namespaces  = make(map[string]*model.NamespaceInfo)
		topKeys     []model.KeyMemoryInfo
		expiry      model.ExpiryAnalysis
		sampled     int
		cursor      uint64
		memoryWorks = true
	)

	for sampled < sampleSize {
		keys, next, err := rdb.Scan(ctx, cursor, "*", 100).Result()
		if err != nil {
			return model.DatabaseAnalysis{}, fmt.Errorf("SCAN failed: %w", err)
		}
		for _, key := range keys {
			if sampled >= sampleSize {
				break
			}
			sampled++

			kind, err := rdb.Type(ctx, key).Result()
			if err != nil {
				continue
			}
			typeCounts[kind]++

			var mem uint64
			if memoryWorks {
				n, err := rdb.MemoryUsage(ctx, key).Result()
				if err != nil {
					if !isMissingKeyReply(err) {
						memoryWorks = false
					}
				} else if n > 0 {
					mem = uint64(n)
				}
			}
			typeMemory[kind] += mem

			ns := "(no namespace)"
			if i := strings.IndexByte(key, ':'); i > 0 {
				ns = key[:i]
			}
			info := namespaces[ns]
			if info == nil {
				info = &model.NamespaceInfo{Namespace: ns}
				namespaces[ns] = info
			}
			info.KeyCount++
			info.MemoryBytes += mem

			ttl, err := rdb.TTL(ctx, key).Result()
			ttlSec := int64(-1)
			if err == nil && ttl > 0 {
				ttlSec = int64(ttl.Seconds())
			}
			if ttlSec > 0 {
				expiry.KeysWithTTL++
				if ttlSec <= 3600 {
					expiry.ExpiringIn1H++
					expiry.MemoryToFree1H += mem
				}
				if ttlSec <= 86400 {
					expiry.ExpiringIn24H++
					expiry.MemoryToFree24H += mem
				}
				if ttlSec <= 7*86400 {
					expiry.ExpiringIn7D++
				}
			} else {
				expiry.KeysWithoutTTL++
			}

			topKeys = append(topKeys, model.KeyMemoryInfo{
				Key:         key,
				Kind:        kind,
				MemoryBytes: mem,
				TTL:         ttlSec,
			})
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	sort.Slice(topKeys, func(i, j int) bool { return topKeys[i].MemoryBytes > topKeys[j].MemoryBytes })
	if len(topKeys) > topKeysLimit {
		topKeys = topKeys[:topKeysLimit]
	}

	analysis := model.DatabaseAnalysis{
		TotalKeys:        totalKeys,
		TotalMemory:      totalMemory,
		TypeDistribution: []model.TypeDistribution{},
		MemoryByType:     []model.TypeMemory{},
		Expiry:           expiry,
		TopKeysByMemory:  topKeys,
		Namespaces:       []model.NamespaceInfo{},
	}

	var sampledMem uint64
	for _, m := range typeMemory {
		sampledMem += m
	}
	for kind, count := range typeCounts {
		dist := model.TypeDistribution{Kind: kind, Count: count}
		if sampled > 0 {
			dist.Percentage = float64(count) / float64(sampled) * 100
		}
		analysis.TypeDistribution = append(analysis.TypeDistribution, dist)

		tm := model.TypeMemory{Kind: kind, MemoryBytes: typeMemory[kind]}
		if sampledMem > 0 {
			tm.Percentage = float64(typeMemory[kind]) / float64(sampledMem) * 100
		}
		analysis.MemoryByType = append(analysis.MemoryByType, tm)
	}
	sort.Slice(analysis.TypeDistribution, func(i, j int) bool {
		return analysis.TypeDistribution[i].Count > analysis.TypeDistribution[j].Count
	})
	sort.Slice(analysis.MemoryByType, func(i, j int) bool {
		return analysis.MemoryByType[i].MemoryBytes > analysis.MemoryByType[j].MemoryBytes
	})

	for _, info := range namespaces {
		analysis.Namespaces = append(analysis.Namespaces, *info)
	}
	sort.Slice(analysis.Namespaces, func(i, j int) bool {
		return analysis.Namespaces[i].KeyCount > analysis.Namespaces[j].KeyCount
	})

	analysis.Recommendations = buildRecommendations(&analysis, sampled, memoryWorks)
	return analysis, nil
}

// isMissingKeyReply reports whether a MEMORY USAGE error is just the key
// expiring between SCAN and the probe rather than the command being
// unsupported.
func isMissingKeyReply(err error) bool {
	return err == redis.Nil
}

func buildRecommendations(a *model.DatabaseAnalysis, sampled int, memoryWorks bool) []string {
	recs := []string{}
	if sampled == 0 {
		return recs
	}
	total := a.Expiry.KeysWithTTL + a.Expiry.KeysWithoutTTL
	if total > 0 {
		noTTLShare := float64(a.Expiry.KeysWithoutTTL) / float64(total)
		if noTTLShare > 0.8 {
			recs = append(recs, fmt.Sprintf(
				"%.0f%% of sampled keys have no TTL; consider setting expirations to bound memory growth",
				noTTLShare*100))
		}
	}
	if len(a.TopKeysByMemory) > 0 && a.TopKeysByMemory[0].MemoryBytes > 1024*1024 {
		recs = append(recs, fmt.Sprintf(
			"largest sampled key %q uses %d bytes; consider splitting or trimming large keys",
			a.TopKeysByMemory[0].Key, a.TopKeysByMemory[0].MemoryBytes))
	}
	if !memoryWorks {
		recs = append(recs, "MEMORY USAGE is unavailable on this server; memory figures are partial")
	}
	if a.TotalKeys > 1_000_000 {
		recs = append(recs, "keyspace exceeds one million keys; prefer SCAN-based access patterns over KEYS")
	}
	return recs
}
