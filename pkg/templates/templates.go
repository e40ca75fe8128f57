// Package templates provides the base jobs the converter builds on.
//
// The converter never modifies a template. Each job is produced by Merge which applies the converter's
// overrides on a deep copy of the template; fields set by the overrides always win.
package templates

import (
	"os"

	"github.com/jlewi/tesk/api/v1alpha1"
	"github.com/pkg/errors"
	meta "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/pointer"
	"sigs.k8s.io/yaml"
)

const (
	// PullIfNotPresent is the image pull policy of the default taskmaster template.
	PullIfNotPresent = "IfNotPresent"
)

// Templates are the base jobs for each role.
type Templates struct {
	Taskmaster *v1alpha1.Job
	Executor   *v1alpha1.Job
}

// Default returns the built in templates.
func Default() *Templates {
	return &Templates{
		Taskmaster: defaultJob(v1alpha1.RoleTaskmaster, PullIfNotPresent),
		Executor:   defaultJob(v1alpha1.RoleExecutor, ""),
	}
}

func defaultJob(role v1alpha1.Role, pullPolicy string) *v1alpha1.Job {
	return &v1alpha1.Job{
		TypeMeta: meta.TypeMeta{
			APIVersion: "batch/v1",
			Kind:       "Job",
		},
		Metadata: v1alpha1.ObjectMeta{
			Name: string(role),
		},
		Spec: v1alpha1.JobSpec{
			// The taskmaster is responsible for failures; K8s shouldn't retry pods.
			BackoffLimit: pointer.Int32(0),
			Template: v1alpha1.PodTemplateSpec{
				Metadata: v1alpha1.ObjectMeta{
					Name: string(role),
				},
				Spec: v1alpha1.PodSpec{
					RestartPolicy: v1alpha1.RestartPolicyNever,
					Containers: []v1alpha1.Container{
						{
							Name:            string(role),
							ImagePullPolicy: pullPolicy,
						},
					},
				},
			},
		},
	}
}

// Load returns the templates using the YAML files at the given paths.
// An empty path selects the default template for that role.
func Load(taskmasterPath string, executorPath string) (*Templates, error) {
	t := Default()
	if taskmasterPath != "" {
		j, err := ReadJob(taskmasterPath)
		if err != nil {
			return nil, err
		}
		t.Taskmaster = j
	}
	if executorPath != "" {
		j, err := ReadJob(executorPath)
		if err != nil {
			return nil, err
		}
		t.Executor = j
	}
	return t, nil
}

// ReadJob reads a job template from a YAML file.
func ReadJob(path string) (*v1alpha1.Job, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to read job template %v", path)
	}
	return ParseJob(b)
}

// ParseJob parses a job template from YAML.
func ParseJob(b []byte) (*v1alpha1.Job, error) {
	j := &v1alpha1.Job{}
	if err := yaml.UnmarshalStrict(b, j); err != nil {
		return nil, errors.Wrapf(err, "Failed to parse job template")
	}
	if j.Kind != "" && j.Kind != "Job" {
		return nil, errors.Errorf("Job template has kind %v; expected Job", j.Kind)
	}
	if len(j.Spec.Template.Spec.Containers) > 1 {
		return nil, errors.Errorf("Job template %v has %d containers; at most one is supported", j.Metadata.Name, len(j.Spec.Template.Spec.Containers))
	}
	return j, nil
}

// ForRole returns the template for the role.
func (t *Templates) ForRole(role v1alpha1.Role) *v1alpha1.Job {
	switch role {
	case v1alpha1.RoleTaskmaster:
		return t.Taskmaster
	case v1alpha1.RoleExecutor:
		return t.Executor
	default:
		return nil
	}
}
