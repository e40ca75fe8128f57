package v1alpha1

import "fmt"

// ConverterConfigKind is the kind of the converter configuration resource.
const ConverterConfigKind = "ConverterConfig"

// ConverterConfig stores the configuration of the task converter.
type ConverterConfig struct {
	APIVersion string              `json:"apiVersion" yaml:"apiVersion"`
	Kind       string              `json:"kind" yaml:"kind"`
	Metadata   Metadata            `json:"metadata" yaml:"metadata"`
	Spec       ConverterConfigSpec `json:"spec" yaml:"spec"`
}

type ConverterConfigSpec struct {
	// TaskmasterImageName is the image of the taskmaster without the tag
	// e.g. docker.io/elixircloud/tesk-core-taskmaster
	TaskmasterImageName string `json:"taskmasterImageName" yaml:"taskmasterImageName"`
	// TaskmasterImageVersion is the tag of the taskmaster image.
	TaskmasterImageVersion string `json:"taskmasterImageVersion" yaml:"taskmasterImageVersion"`
	// ServiceAccountName is the service account the taskmaster runs as. It needs permission to create jobs
	// in Namespace.
	ServiceAccountName string `json:"serviceAccountName,omitempty" yaml:"serviceAccountName,omitempty"`
	// Namespace is the namespace the taskmaster creates executor jobs in. Defaults to DefaultNamespace.
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
	// ScratchPaths are directories always mounted into every executor to hand off files between them.
	ScratchPaths []string `json:"scratchPaths,omitempty" yaml:"scratchPaths,omitempty"`
	// TaskmasterTemplate is an optional path to a YAML file containing the base taskmaster job.
	TaskmasterTemplate string `json:"taskmasterTemplate,omitempty" yaml:"taskmasterTemplate,omitempty"`
	// ExecutorTemplate is an optional path to a YAML file containing the base executor job.
	ExecutorTemplate string `json:"executorTemplate,omitempty" yaml:"executorTemplate,omitempty"`
}

// TaskmasterImage returns the full image of the taskmaster i.e. name:version.
func (c ConverterConfigSpec) TaskmasterImage() string {
	if c.TaskmasterImageVersion == "" {
		return c.TaskmasterImageName
	}
	return fmt.Sprintf("%v:%v", c.TaskmasterImageName, c.TaskmasterImageVersion)
}

// TaskmasterNamespace returns the namespace passed to the taskmaster.
func (c ConverterConfigSpec) TaskmasterNamespace() string {
	if c.Namespace == "" {
		return DefaultNamespace
	}
	return c.Namespace
}
