// Package render writes converted jobs as YAML.
package render

import (
	"io"

	"github.com/jlewi/tesk/api/v1alpha1"
	"github.com/jlewi/tesk/pkg/codec"
	"github.com/jlewi/tesk/pkg/converter"
	"github.com/pkg/errors"
	"sigs.k8s.io/kustomize/kyaml/kio"
	kyaml "sigs.k8s.io/kustomize/kyaml/yaml"
	"sigs.k8s.io/yaml"
)

// Options control what is rendered.
type Options struct {
	// Executors also renders the executor jobs embedded in the taskmaster job.
	Executors bool
}

// Write writes the taskmaster job, followed by its executor jobs if requested, as a multi document YAML
// stream.
func Write(w io.Writer, job *v1alpha1.Job, cd codec.Codec, opts Options) error {
	jobs := []*v1alpha1.Job{job}
	if opts.Executors {
		plan, err := converter.DecodePlan(job, cd)
		if err != nil {
			return err
		}
		jobs = append(jobs, plan.Executors...)
	}

	nodes := make([]*kyaml.RNode, 0, len(jobs))
	for _, j := range jobs {
		n, err := toNode(j)
		if err != nil {
			return err
		}
		nodes = append(nodes, n)
	}

	writer := kio.ByteWriter{Writer: w}
	if err := writer.Write(nodes); err != nil {
		return errors.Wrapf(err, "Failed to write jobs")
	}
	return nil
}

func toNode(j *v1alpha1.Job) (*kyaml.RNode, error) {
	b, err := yaml.Marshal(j)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to marshal job %v to YAML", j.Metadata.Name)
	}
	n, err := kyaml.Parse(string(b))
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to parse YAML of job %v", j.Metadata.Name)
	}
	return n, nil
}
