package model

// ServerInfo is the server section of an INFO reply.
type ServerInfo struct {
	Version          string `json:"redisVersion"`
	OS               string `json:"os"`
	UptimeSeconds    uint64 `json:"uptimeInSeconds"`
	ConnectedClients uint64 `json:"connectedClients"`
	TCPPort          int    `json:"tcpPort"`
}

// MemoryInfo is the memory section of an INFO reply.
type MemoryInfo struct {
	UsedMemory          uint64  `json:"usedMemory"`
	UsedMemoryHuman     string  `json:"usedMemoryHuman"`
	UsedMemoryPeak      uint64  `json:"usedMemoryPeak"`
	UsedMemoryPeakHuman string  `json:"usedMemoryPeakHuman"`
	MaxMemory           uint64  `json:"maxmemory"`
	MaxMemoryHuman      string  `json:"maxmemoryHuman"`
	FragmentationRatio  float64 `json:"memFragmentationRatio"`
}

// StatsInfo is the stats section of an INFO reply.
type StatsInfo struct {
	TotalConnections  uint64 `json:"totalConnectionsReceived"`
	TotalCommands     uint64 `json:"totalCommandsProcessed"`
	OpsPerSec         uint64 `json:"instantaneousOpsPerSec"`
	KeyspaceHits      uint64 `json:"keyspaceHits"`
	KeyspaceMisses    uint64 `json:"keyspaceMisses"`
	ExpiredKeys       uint64 `json:"expiredKeys"`
	EvictedKeys       uint64 `json:"evictedKeys"`
}

// ReplicationInfo is the replication section of an INFO reply.
type ReplicationInfo struct {
	Role             string `json:"role"`
	ConnectedSlaves  uint64 `json:"connectedSlaves"`
	MasterHost       string `json:"masterHost,omitempty"`
	MasterPort       int    `json:"masterPort,omitempty"`
	MasterLinkStatus string `json:"masterLinkStatus,omitempty"`
}

// KeyspaceDB is one dbN line of the keyspace section.
type KeyspaceDB struct {
	Keys    uint64 `json:"keys"`
	Expires uint64 `json:"expires"`
	AvgTTL  uint64 `json:"avgTtl"`
}

// Info is the structured view of a full INFO reply.
type Info struct {
	Server      ServerInfo            `json:"server"`
	Memory      MemoryInfo            `json:"memory"`
	Stats       StatsInfo             `json:"stats"`
	Replication ReplicationInfo       `json:"replication"`
	Keyspace    map[string]KeyspaceDB `json:"keyspace"`
}

// Capabilities summarizes what the target server is and supports.
type Capabilities struct {
	ServerType          string `json:"serverType"`
	Version             string `json:"version"`
	ClusterEnabled      bool   `json:"clusterEnabled"`
	ClusterMode         string `json:"clusterMode"`
	SupportsMemory      bool   `json:"supportsMemoryCommands"`
	SupportsLatency     bool   `json:"supportsLatencyCommands"`
	IsReadReplica       bool   `json:"isReadReplica"`
	MaxClients          uint64 `json:"maxClients"`
	TotalKeys           uint64 `json:"totalKeys"`
}

// ClientInfo is one line of a CLIENT LIST reply.
type ClientInfo struct {
	ID    string `json:"id"`
	Addr  string `json:"addr"`
	IP    string `json:"ip"`
	Port  string `json:"port"`
	Name  string `json:"name,omitempty"`
	Age   uint64 `json:"age"`
	Idle  uint64 `json:"idle"`
	Flags string `json:"flags"`
	DB    int    `json:"db"`
	Cmd   string `json:"cmd"`
	QBuf  uint64 `json:"qbuf"`
	OBL   uint64 `json:"obl"`
	OLL   uint64 `json:"oll"`
}

// SlowLogEntry is one SLOWLOG GET record.
type SlowLogEntry struct {
	ID         uint64   `json:"id"`
	Timestamp  uint64   `json:"timestamp"`
	DurationUs uint64   `json:"durationUs"`
	Command    string   `json:"command"`
	Args       []string `json:"args"`
	ClientAddr string   `json:"clientAddr,omitempty"`
	ClientName string   `json:"clientName,omitempty"`
}

// MemoryStats is the flattened MEMORY STATS reply.
type MemoryStats struct {
	PeakAllocated       uint64  `json:"peakAllocated"`
	TotalAllocated      uint64  `json:"totalAllocated"`
	StartupAllocated    uint64  `json:"startupAllocated"`
	ReplicationBacklog  uint64  `json:"replicationBacklog"`
	ClientsSlaves       uint64  `json:"clientsSlaves"`
	ClientsNormal       uint64  `json:"clientsNormal"`
	AOFBuffer           uint64  `json:"aofBuffer"`
	LuaCaches           uint64  `json:"luaCaches"`
	HashtableOverhead   uint64  `json:"dbHashtableOverhead"`
	KeysCount           uint64  `json:"keysCount"`
	BytesPerKey         uint64  `json:"keysBytesPerKey"`
	DatasetBytes        uint64  `json:"datasetBytes"`
	DatasetPercentage   float64 `json:"datasetPercentage"`
	PeakPercentage      float64 `json:"peakPercentage"`
	FragmentationRatio  float64 `json:"fragmentationRatio"`
}

// CommandStat is one cmdstat_ line of INFO commandstats.
type CommandStat struct {
	Command       string  `json:"command"`
	Calls         uint64  `json:"calls"`
	Usec          uint64  `json:"usec"`
	UsecPerCall   float64 `json:"usecPerCall"`
	RejectedCalls uint64  `json:"rejectedCalls"`
	FailedCalls   uint64  `json:"failedCalls"`
}

// ClusterInfo is the parsed CLUSTER INFO reply.
type ClusterInfo struct {
	Enabled       bool   `json:"clusterEnabled"`
	State         string `json:"clusterState"`
	SlotsAssigned uint64 `json:"clusterSlotsAssigned"`
	SlotsOK       uint64 `json:"clusterSlotsOk"`
	SlotsPFail    uint64 `json:"clusterSlotsPfail"`
	SlotsFail     uint64 `json:"clusterSlotsFail"`
	KnownNodes    uint64 `json:"clusterKnownNodes"`
	Size          uint64 `json:"clusterSize"`
	CurrentEpoch  uint64 `json:"clusterCurrentEpoch"`
	MyEpoch       uint64 `json:"clusterMyEpoch"`
}

// ClusterNode is one line of a CLUSTER NODES reply.
type ClusterNode struct {
	ID          string   `json:"id"`
	Addr        string   `json:"addr"`
	Flags       string   `json:"flags"`
	MasterID    string   `json:"masterId,omitempty"`
	PingSent    uint64   `json:"pingSent"`
	PongRecv    uint64   `json:"pongRecv"`
	ConfigEpoch uint64   `json:"configEpoch"`
	LinkState   string   `json:"linkState"`
	Slots       []string `json:"slots"`
}

// PersistenceInfo is the persistence section of an INFO reply.
type PersistenceInfo struct {
	RDBLastSaveTime        uint64 `json:"rdbLastSaveTime"`
	RDBChangesSinceSave    uint64 `json:"rdbChangesSinceLastSave"`
	RDBBgsaveInProgress    bool   `json:"rdbBgsaveInProgress"`
	RDBLastBgsaveStatus    string `json:"rdbLastBgsaveStatus"`
	RDBLastBgsaveTimeSec   int64  `json:"rdbLastBgsaveTimeSec"`
	AOFEnabled             bool   `json:"aofEnabled"`
	AOFRewriteInProgress   bool   `json:"aofRewriteInProgress"`
	AOFLastRewriteTimeSec  int64  `json:"aofLastRewriteTimeSec"`
	AOFLastBgrewriteStatus string `json:"aofLastBgrewriteStatus"`
	AOFCurrentSize         uint64 `json:"aofCurrentSize"`
	AOFBaseSize            uint64 `json:"aofBaseSize"`
}

// CPUStats is the cpu section of an INFO reply.
type CPUStats struct {
	UsedCPUSys          float64 `json:"usedCpuSys"`
	UsedCPUUser         float64 `json:"usedCpuUser"`
	UsedCPUSysChildren  float64 `json:"usedCpuSysChildren"`
	UsedCPUUserChildren float64 `json:"usedCpuUserChildren"`
}

// ErrorStat is one errorstat_ line of INFO errorstats.
type ErrorStat struct {
	ErrorType string `json:"errorType"`
	Count     uint64 `json:"count"`
}

// AdvancedAnalytics bundles every best-effort diagnostic in one response.
// Missing sections stay nil/empty rather than failing the whole bundle.
type AdvancedAnalytics struct {
	MemoryStats   *MemoryStats     `json:"memoryStats,omitempty"`
	MemoryDoctor  string           `json:"memoryDoctor,omitempty"`
	SlowLog       []SlowLogEntry   `json:"slowLog"`
	CommandStats  []CommandStat    `json:"commandStats"`
	ClusterInfo   *ClusterInfo     `json:"clusterInfo,omitempty"`
	ClusterNodes  []ClusterNode    `json:"clusterNodes"`
	Persistence   *PersistenceInfo `json:"persistence,omitempty"`
	CPUStats      *CPUStats        `json:"cpuStats,omitempty"`
	ErrorStats    []ErrorStat      `json:"errorStats"`
	LatencyDoctor string           `json:"latencyDoctor,omitempty"`
}

// TypeDistribution is the sampled share of one container kind.
type TypeDistribution struct {
	Kind       string  `json:"keyType"`
	Count      uint64  `json:"count"`
	Percentage float64 `json:"percentage"`
}

// TypeMemory is the sampled memory share of one container kind.
type TypeMemory struct {
	Kind        string  `json:"keyType"`
	MemoryBytes uint64  `json:"memoryBytes"`
	Percentage  float64 `json:"percentage"`
}

// NamespaceInfo aggregates keys sharing a "prefix:" namespace.
type NamespaceInfo struct {
	Namespace   string `json:"namespace"`
	KeyCount    uint64 `json:"keyCount"`
	MemoryBytes uint64 `json:"memoryBytes"`
}

// KeyMemoryInfo is one sampled key with its memory footprint.
type KeyMemoryInfo struct {
	Key         string `json:"key"`
	Kind        string `json:"keyType"`
	MemoryBytes uint64 `json:"memoryBytes"`
	TTL         int64  `json:"ttl"`
}

// ExpiryAnalysis buckets sampled keys by time-to-expiry.
type ExpiryAnalysis struct {
	KeysWithTTL      uint64 `json:"keysWithTtl"`
	KeysWithoutTTL   uint64 `json:"keysWithoutTtl"`
	ExpiringIn1H     uint64 `json:"expiringIn1h"`
	ExpiringIn24H    uint64 `json:"expiringIn24h"`
	ExpiringIn7D     uint64 `json:"expiringIn7d"`
	MemoryToFree1H   uint64 `json:"memoryToFree1h"`
	MemoryToFree24H  uint64 `json:"memoryToFree24h"`
}

// DatabaseAnalysis is the result of sampling the keyspace.
type DatabaseAnalysis struct {
	TotalKeys        uint64             `json:"totalKeys"`
	TotalMemory      uint64             `json:"totalMemory"`
	TypeDistribution []TypeDistribution `json:"typeDistribution"`
	MemoryByType     []TypeMemory       `json:"memoryByType"`
	Expiry           ExpiryAnalysis     `json:"expiryAnalysis"`
	TopKeysByMemory  []KeyMemoryInfo    `json:"topKeysByMemory"`
	Namespaces       []NamespaceInfo    `json:"namespaces"`
	Recommendations  []string           `json:"recommendations"`
}

// IdleClient is a client idle beyond the reporting threshold.
type IdleClient struct {
	ID               string `json:"id"`
	Addr             string `json:"addr"`
	IdleSeconds      uint64 `json:"idleSeconds"`
	LastCommand      string `json:"lastCommand"`
	ConnectedSeconds uint64 `json:"connectedSeconds"`
}

// ClientMemoryInfo is a client with oversized query or output buffers.
type ClientMemoryInfo struct {
	ID          string `json:"id"`
	Addr        string `json:"addr"`
	OutputBytes uint64 `json:"outputBufferBytes"`
	QueryBytes  uint64 `json:"queryBufferBytes"`
}

// CommandClientInfo groups clients by their last command.
type CommandClientInfo struct {
	Command     string   `json:"command"`
	ClientCount uint64   `json:"clientCount"`
	ClientIPs   []string `json:"clientIps"`
}

// SuspiciousPattern is a fleet-wide client behaviour worth flagging.
type SuspiciousPattern struct {
	PatternType     string   `json:"patternType"`
	Severity        string   `json:"severity"`
	Description     string   `json:"description"`
	AffectedClients []string `json:"affectedClients"`
	Recommendation  string   `json:"recommendation"`
}

// ClientAnomaly is a single-client behaviour worth flagging.
type ClientAnomaly struct {
	AnomalyType string `json:"anomalyType"`
	ClientAddr  string `json:"clientAddr"`
	Details     string `json:"details"`
	Severity    string `json:"severity"`
}

// ClientAnalysis is the behavioural summary of the current client set.
type ClientAnalysis struct {
	TotalClients       uint64              `json:"totalClients"`
	IdleClients        []IdleClient        `json:"idleClients"`
	HighMemoryClients  []ClientMemoryInfo  `json:"highMemoryClients"`
	ClientsByCommand   []CommandClientInfo `json:"clientsByCommand"`
	SuspiciousPatterns []SuspiciousPattern `json:"suspiciousPatterns"`
	Anomalies          []ClientAnomaly     `json:"anomalies"`
}
