package v1alpha1

// TaskmasterInputVersion is the version of the TaskmasterInput schema.
// It is passed to the taskmaster in the JSON_INPUT_VERSION environment variable. Bump it whenever
// a change to TaskmasterInput isn't backwards compatible.
const TaskmasterInputVersion = "v1"

// TaskmasterInput is the plan the taskmaster executes. It is serialized into the JSON_INPUT environment
// variable of the taskmaster container.
type TaskmasterInput struct {
	// Executors are the executor jobs in the order they must run.
	Executors []*Job        `json:"executors"`
	Inputs    []TesInput    `json:"inputs"`
	Outputs   []TesOutput   `json:"outputs"`
	Volumes   []string      `json:"volumes"`
	Resources PlanResources `json:"resources"`
}

// PlanResources is the resource envelope of the task as passed to the taskmaster.
// Unlike TesResources zero values are always serialized.
type PlanResources struct {
	CPUCores    int      `json:"cpu_cores"`
	Preemptible bool     `json:"preemptible"`
	RAMGb       float64  `json:"ram_gb"`
	DiskGb      float64  `json:"disk_gb"`
	Zones       []string `json:"zones,omitempty"`
}
