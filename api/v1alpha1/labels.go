package v1alpha1

// Label keys set on the generated jobs.
const (
	// LabelJobType is set to the Role of the job.
	LabelJobType = "job-type"
	// LabelCreatorUserID is the ID of the user that submitted the task.
	LabelCreatorUserID = "creator-user-id"
	// LabelCreatorGroupName is the first group of the user that submitted the task.
	// It is only set on the taskmaster job and only if the user belongs to a group.
	LabelCreatorGroupName = "creator-group-name"
	// LabelTaskmasterName is set on executor jobs to the name of the taskmaster job that owns them.
	LabelTaskmasterName = "taskmaster-name"
	// LabelTesTaskName is set on executor jobs to the name of the TES task.
	LabelTesTaskName = "tes-task-name"
)

// Annotation keys set on the generated jobs.
const (
	// AnnotationTesTaskName is the human readable name of the TES task.
	AnnotationTesTaskName = "tes-task-name"
	// AnnotationJSONInput is the full TES task as submitted. It is kept for auditing.
	AnnotationJSONInput = "json-input"
)

// Conventions shared with the taskmaster process.
const (
	// EnvJSONInput is the environment variable of the taskmaster container holding the TaskmasterInput.
	EnvJSONInput = "JSON_INPUT"
	// EnvJSONInputVersion is the environment variable holding TaskmasterInputVersion.
	EnvJSONInputVersion = "JSON_INPUT_VERSION"
	// ArgJSONInput is the container argument K8s expands to the value of EnvJSONInput.
	ArgJSONInput = "$(" + EnvJSONInput + ")"
	// ArgNamespace is the taskmaster flag that precedes the namespace executors are created in.
	ArgNamespace = "-n"
	// DefaultNamespace is the namespace passed to the taskmaster when none is configured.
	DefaultNamespace = "default"

	// ExecutorSeparator separates the taskmaster name from the executor index in executor job names.
	ExecutorSeparator = "-ex-"
)
