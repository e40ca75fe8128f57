package converter

import (
	"github.com/jlewi/tesk/api/v1alpha1"
	"github.com/jlewi/tesk/pkg/codec"
	"github.com/pkg/errors"
)

// DecodePlan returns the TaskmasterInput embedded in a taskmaster job produced by Convert.
func DecodePlan(job *v1alpha1.Job, cd codec.Codec) (*v1alpha1.TaskmasterInput, error) {
	c := job.Container()
	if c == nil {
		return nil, errors.Errorf("Job %v has no containers", job.Metadata.Name)
	}
	version := ""
	value := ""
	found := false
	for _, e := range c.Env {
		switch e.Name {
		case v1alpha1.EnvJSONInput:
			value = e.Value
			found = true
		case v1alpha1.EnvJSONInputVersion:
			version = e.Value
		}
	}
	if !found {
		return nil, errors.Errorf("Job %v doesn't have environment variable %v", job.Metadata.Name, v1alpha1.EnvJSONInput)
	}
	if version != v1alpha1.TaskmasterInputVersion {
		return nil, errors.Errorf("Job %v has %v version %q; only %q is supported", job.Metadata.Name, v1alpha1.EnvJSONInput, version, v1alpha1.TaskmasterInputVersion)
	}
	plan := &v1alpha1.TaskmasterInput{}
	if err := cd.Unmarshal(value, plan); err != nil {
		return nil, errors.Wrapf(err, "Failed to decode %v of job %v", v1alpha1.EnvJSONInput, job.Metadata.Name)
	}
	return plan, nil
}
