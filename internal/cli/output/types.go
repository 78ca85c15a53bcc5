package output

// NodeGroupInfo describes one node group of a built graph.
type NodeGroupInfo struct {
	Name     string `json:"name"`
	NumNodes int    `json:"num_nodes"`
	NumCols  int    `json:"num_cols"`
	Temporal bool   `json:"temporal"`
}

// EdgeGroupInfo describes one edge group of a built graph.
type EdgeGroupInfo struct {
	Src      string `json:"src"`
	Rel      string `json:"rel"`
	Dst      string `json:"dst"`
	NumEdges int64  `json:"num_edges"`
}

// BuildOutput is the JSON result of the build command.
type BuildOutput struct {
	BuildID    string          `json:"build_id,omitempty"`
	Dataset    string          `json:"dataset"`
	EdgeIndex  string          `json:"edge_index"`
	NodeGroups []NodeGroupInfo `json:"node_groups"`
	EdgeGroups []EdgeGroupInfo `json:"edge_groups"`
	NumNodes   int64           `json:"num_nodes"`
	NumEdges   int64           `json:"num_edges"`
}

// WindowInfo is one time window.
type WindowInfo struct {
	Offset     string `json:"offset"`
	Cutoff     string `json:"cutoff"`
	OffsetUnix int64  `json:"offset_unix"`
	CutoffUnix int64  `json:"cutoff_unix"`
	Split      string `json:"split,omitempty"`
}

// WindowsOutput is the JSON result of the windows command.
type WindowsOutput struct {
	ID      string       `json:"id,omitempty"`
	Windows []WindowInfo `json:"windows"`
}

// SchemaTable describes one table of a dataset schema.
type SchemaTable struct {
	Name        string            `json:"name"`
	PrimaryKey  string            `json:"primary_key,omitempty"`
	TimeColumn  string            `json:"time_column,omitempty"`
	ForeignKeys map[string]string `json:"foreign_keys,omitempty"`
	Rows        int64             `json:"rows"`
}

// SchemaOutput is the JSON result of the schema command.
type SchemaOutput struct {
	Dataset        string        `json:"dataset"`
	Tables         []SchemaTable `json:"tables"`
	Levels         [][]string    `json:"levels,omitempty"`
	Cycle          []string      `json:"cycle,omitempty"`
	SelfReferences []string      `json:"self_references,omitempty"`
}

// BuildInfo is one recorded build.
type BuildInfo struct {
	ID          string `json:"id"`
	Dataset     string `json:"dataset"`
	EdgeIndex   string `json:"edge_index"`
	Status      string `json:"status"`
	StartedAt   string `json:"started_at"`
	CompletedAt string `json:"completed_at,omitempty"`
	NodeGroups  int    `json:"node_groups"`
	EdgeGroups  int    `json:"edge_groups"`
	NumNodes    int64  `json:"num_nodes"`
	NumEdges    int64  `json:"num_edges"`
	Error       string `json:"error,omitempty"`
}

// HistoryOutput is the JSON result of the history command.
type HistoryOutput struct {
	Builds     []BuildInfo     `json:"builds"`
	EdgeGroups []EdgeGroupInfo `json:"edge_groups,omitempty"`
}

// SeedOutput is the JSON result of the seed command.
type SeedOutput struct {
	SeedsDir string   `json:"seeds_dir"`
	Tables   []string `json:"tables"`
}
