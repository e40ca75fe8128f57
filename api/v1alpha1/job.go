package v1alpha1

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
	batchv1 "k8s.io/api/batch/v1"
	meta "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// Role distinguishes the two kinds of jobs produced for a task.
type Role string

const (
	// RoleTaskmaster is the job that supervises the executors of a task.
	RoleTaskmaster Role = "taskmaster"
	// RoleExecutor is the job that runs a single executor.
	RoleExecutor Role = "executor"
)

// RestartPolicyNever is the only restart policy used for TES jobs; failures surface to the taskmaster.
const RestartPolicyNever = "Never"

// Job is the subset of a K8s batch/v1 Job that we generate.
//
// N.B. Based on https://github.com/kubernetes/api/blob/v0.27.3/batch/v1/types.go
// We copy the structs rather than use batchv1.Job directly so we control the serialized form.
// In particular resource.Quantity canonicalizes "15.0G" to "15G" when it is serialized but the
// taskmaster expects the requests exactly as the task specified them.
type Job struct {
	meta.TypeMeta `json:",inline" yaml:",inline"`
	Metadata      ObjectMeta `json:"metadata" yaml:"metadata"`
	Spec          JobSpec    `json:"spec" yaml:"spec"`
}

// ObjectMeta is the metadata of a Job or a pod template.
type ObjectMeta struct {
	Name        string            `json:"name,omitempty" yaml:"name,omitempty"`
	Labels      map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`
	Annotations map[string]string `json:"annotations,omitempty" yaml:"annotations,omitempty"`
}

// JobSpec describes how the job execution will look like.
type JobSpec struct {
	// BackoffLimit is the number of retries before marking the job failed.
	// +optional
	BackoffLimit *int32          `json:"backoffLimit,omitempty" yaml:"backoffLimit,omitempty"`
	Template     PodTemplateSpec `json:"template" yaml:"template"`
}

// PodTemplateSpec describes the pods that will be created by the job.
type PodTemplateSpec struct {
	Metadata ObjectMeta `json:"metadata" yaml:"metadata"`
	Spec     PodSpec    `json:"spec" yaml:"spec"`
}

// PodSpec is a description of a pod.
type PodSpec struct {
	ServiceAccountName string      `json:"serviceAccountName,omitempty" yaml:"serviceAccountName,omitempty"`
	RestartPolicy      string      `json:"restartPolicy,omitempty" yaml:"restartPolicy,omitempty"`
	Containers         []Container `json:"containers" yaml:"containers"`
}

// Container is a single container in a pod.
//
// WorkingDir and Env are omitted entirely when they aren't set; consumers rely on the key being absent
// rather than empty.
type Container struct {
	Name            string               `json:"name" yaml:"name"`
	Image           string               `json:"image,omitempty" yaml:"image,omitempty"`
	ImagePullPolicy string               `json:"imagePullPolicy,omitempty" yaml:"imagePullPolicy,omitempty"`
	Command         []string             `json:"command,omitempty" yaml:"command,omitempty"`
	Args            []string             `json:"args,omitempty" yaml:"args,omitempty"`
	WorkingDir      string               `json:"workingDir,omitempty" yaml:"workingDir,omitempty"`
	Env             []EnvVar             `json:"env,omitempty" yaml:"env,omitempty"`
	Resources       ResourceRequirements `json:"resources" yaml:"resources"`
}

// EnvVar is an environment variable present in a container.
type EnvVar struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// ResourceRequirements holds the compute resources requested by a container.
// Values are kept as strings; see the comment on Job.
type ResourceRequirements struct {
	Requests map[string]string `json:"requests,omitempty" yaml:"requests,omitempty"`
}

// Container returns the first container of the pod template or nil if there isn't one.
func (j *Job) Container() *Container {
	if j == nil || len(j.Spec.Template.Spec.Containers) == 0 {
		return nil
	}
	return &j.Spec.Template.Spec.Containers[0]
}

// DeepCopy returns a deep copy of the job.
func (j *Job) DeepCopy() *Job {
	if j == nil {
		return nil
	}
	out := *j
	out.Metadata = j.Metadata.deepCopy()
	if j.Spec.BackoffLimit != nil {
		v := *j.Spec.BackoffLimit
		out.Spec.BackoffLimit = &v
	}
	out.Spec.Template.Metadata = j.Spec.Template.Metadata.deepCopy()
	if j.Spec.Template.Spec.Containers != nil {
		out.Spec.Template.Spec.Containers = make([]Container, 0, len(j.Spec.Template.Spec.Containers))
		for _, c := range j.Spec.Template.Spec.Containers {
			out.Spec.Template.Spec.Containers = append(out.Spec.Template.Spec.Containers, c.deepCopy())
		}
	}
	return &out
}

func (m ObjectMeta) deepCopy() ObjectMeta {
	return ObjectMeta{
		Name:        m.Name,
		Labels:      copyMap(m.Labels),
		Annotations: copyMap(m.Annotations),
	}
}

func (c Container) deepCopy() Container {
	out := c
	out.Command = copyStrings(c.Command)
	out.Args = copyStrings(c.Args)
	if c.Env != nil {
		out.Env = append([]EnvVar{}, c.Env...)
	}
	out.Resources.Requests = copyMap(c.Resources.Requests)
	return out
}

func copyMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string{}, s...)
}

// ToK8s converts it to a K8s batch/v1 Job so it can be submitted with the K8s client libraries.
// Requests are parsed as resource.Quantity values and so are canonicalized by the conversion.
func (j *Job) ToK8s() (*batchv1.Job, error) {
	// Convert by serializing and then deserializing.
	b := bytes.NewBufferString("")
	e := json.NewEncoder(b)
	if err := e.Encode(j); err != nil {
		return nil, errors.Wrapf(err, "Failed to encode job %v", j.Metadata.Name)
	}

	d := json.NewDecoder(b)

	job := &batchv1.Job{}

	if err := d.Decode(job); err != nil {
		return nil, errors.Wrapf(err, "Failed to decode job %v as a batch/v1 Job", j.Metadata.Name)
	}

	return job, nil
}
