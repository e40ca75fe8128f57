package v1alpha1

// FileType is the type of a TES input or output.
type FileType string

const (
	// FileTypeFile is a single file.
	FileTypeFile FileType = "FILE"
	// FileTypeDirectory is a directory.
	FileTypeDirectory FileType = "DIRECTORY"
)

// TesTask is a task as submitted to the GA4GH Task Execution Service.
//
// N.B. Based on https://github.com/ga4gh/task-execution-schemas/blob/v1.0.0/openapi/task_execution.swagger.yaml
// Only the fields the converter reads are documented; the rest are carried so that the task
// round trips through the json-input annotation unchanged.
type TesTask struct {
	ID          string `json:"id,omitempty" yaml:"id,omitempty"`
	State       string `json:"state,omitempty" yaml:"state,omitempty"`
	Name        string `json:"name,omitempty" yaml:"name,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	Inputs    []TesInput    `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	Outputs   []TesOutput   `json:"outputs,omitempty" yaml:"outputs,omitempty"`
	Resources *TesResources `json:"resources,omitempty" yaml:"resources,omitempty"`

	// Executors run sequentially in the order they are listed.
	Executors []TesExecutor `json:"executors" yaml:"executors"`

	// Volumes are directories that are shared between executors.
	Volumes []string          `json:"volumes,omitempty" yaml:"volumes,omitempty"`
	Tags    map[string]string `json:"tags,omitempty" yaml:"tags,omitempty"`

	CreationTime string `json:"creation_time,omitempty" yaml:"creation_time,omitempty"`
}

// TesExecutor is a single command run inside a container.
type TesExecutor struct {
	Image   string   `json:"image" yaml:"image"`
	Command []string `json:"command" yaml:"command"`
	// Workdir is the working directory the command runs in. Optional.
	Workdir string `json:"workdir,omitempty" yaml:"workdir,omitempty"`
	// Stdin, Stdout and Stderr are paths inside the container. Optional.
	Stdin  string            `json:"stdin,omitempty" yaml:"stdin,omitempty"`
	Stdout string            `json:"stdout,omitempty" yaml:"stdout,omitempty"`
	Stderr string            `json:"stderr,omitempty" yaml:"stderr,omitempty"`
	Env    map[string]string `json:"env,omitempty" yaml:"env,omitempty"`
}

// TesInput is a file or directory staged into the executors before they run.
// Exactly one of URL and Content should be set.
type TesInput struct {
	Name        string   `json:"name,omitempty" yaml:"name,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	URL         string   `json:"url,omitempty" yaml:"url,omitempty"`
	Path        string   `json:"path" yaml:"path"`
	Type        FileType `json:"type,omitempty" yaml:"type,omitempty"`
	// Content is inline file content. It takes precedence over URL.
	Content string `json:"content,omitempty" yaml:"content,omitempty"`
}

// TesOutput is a file or directory uploaded after the executors finish.
type TesOutput struct {
	Name        string   `json:"name,omitempty" yaml:"name,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	URL         string   `json:"url" yaml:"url"`
	Path        string   `json:"path" yaml:"path"`
	Type        FileType `json:"type,omitempty" yaml:"type,omitempty"`
}

// TesResources is the resource envelope shared by all executors of a task.
//
// CPUCores and RAMGb are pointers because an explicit 0 is still turned into a request.
type TesResources struct {
	CPUCores    *int     `json:"cpu_cores,omitempty" yaml:"cpu_cores,omitempty"`
	Preemptible bool     `json:"preemptible,omitempty" yaml:"preemptible,omitempty"`
	RAMGb       *float64 `json:"ram_gb,omitempty" yaml:"ram_gb,omitempty"`
	DiskGb      float64  `json:"disk_gb,omitempty" yaml:"disk_gb,omitempty"`
	Zones       []string `json:"zones,omitempty" yaml:"zones,omitempty"`
}

// User is the identity on whose behalf a task is converted.
type User struct {
	ID string `json:"id" yaml:"id"`
	// Groups the user belongs to. Only the first group is used for labeling.
	Groups []string `json:"groups,omitempty" yaml:"groups,omitempty"`
}

// PrimaryGroup returns the first group of the user or "" if the user doesn't belong to any group.
func (u User) PrimaryGroup() string {
	if len(u.Groups) == 0 {
		return ""
	}
	return u.Groups[0]
}
