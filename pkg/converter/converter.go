// Package converter converts TES tasks into the K8s jobs that run them.
//
// A task is converted into a single taskmaster job. The taskmaster job carries the executor jobs, the
// inputs, outputs, volumes and resources of the task in its JSON_INPUT environment variable; the
// taskmaster process creates the executor jobs one after the other when it runs.
package converter

import (
	"context"
	"math"

	"github.com/jlewi/tesk/api/v1alpha1"
	"github.com/jlewi/tesk/pkg/codec"
	"github.com/jlewi/tesk/pkg/names"
	"github.com/jlewi/tesk/pkg/templates"
	"github.com/jlewi/tesk/pkg/util"
	"github.com/pkg/errors"
)

// Converter converts TES tasks to jobs.
// A Converter is immutable and safe for concurrent use as long as its name generator is.
type Converter struct {
	config    v1alpha1.ConverterConfigSpec
	templates *templates.Templates
	names     names.Generator
	codec     codec.Codec
}

// Option configures a Converter.
type Option func(c *Converter)

// WithTemplates sets the job templates. The default templates are used otherwise.
func WithTemplates(t *templates.Templates) Option {
	return func(c *Converter) {
		c.templates = t
	}
}

// WithGenerator sets the generator of task names. A names.UUIDGenerator is used otherwise.
func WithGenerator(g names.Generator) Option {
	return func(c *Converter) {
		c.names = g
	}
}

// WithCodec sets the codec used to embed the task and the plan. codec.JSON is used otherwise.
func WithCodec(cd codec.Codec) Option {
	return func(c *Converter) {
		c.codec = cd
	}
}

// New creates a new converter.
func New(config v1alpha1.ConverterConfigSpec, opts ...Option) (*Converter, error) {
	if _, err := util.ParseImage(config.TaskmasterImage()); err != nil {
		return nil, errors.Wrapf(err, "Invalid taskmaster image")
	}
	c := &Converter{
		config:    config,
		templates: templates.Default(),
		names:     names.NewUUIDGenerator(),
		codec:     codec.JSON{},
	}
	for _, o := range opts {
		o(c)
	}
	if c.templates == nil || c.templates.Taskmaster == nil || c.templates.Executor == nil {
		return nil, errors.New("Templates for both the taskmaster and the executors are required")
	}
	if c.names == nil || c.codec == nil {
		return nil, errors.New("A name generator and a codec are required")
	}
	return c, nil
}

// Convert converts the task into the taskmaster job that runs it on behalf of user.
//
// The task isn't modified. On error no job is returned; the error is a *v1alpha1.ConversionError whose
// kind can be checked with errors.Is e.g. errors.Is(err, v1alpha1.InvalidTask).
func (c *Converter) Convert(ctx context.Context, task *v1alpha1.TesTask, user v1alpha1.User) (*v1alpha1.Job, error) {
	log := util.LogFromContext(ctx)
	if task == nil {
		return nil, v1alpha1.NewConversionError(v1alpha1.InvalidTask, v1alpha1.NoExecutor, "", errors.New("task is nil"))
	}
	if err := validate(task, user); err != nil {
		return nil, err
	}
	if err := checkEncodable(task); err != nil {
		return nil, err
	}

	name, err := c.names.Generate()
	if err != nil {
		return nil, v1alpha1.NewConversionError(v1alpha1.NameGenerationFailed, v1alpha1.NoExecutor, "", err)
	}
	if err := names.Validate(name); err != nil {
		return nil, v1alpha1.NewConversionError(v1alpha1.NameGenerationFailed, v1alpha1.NoExecutor, "", err)
	}

	taskJSON, err := c.codec.Marshal(task)
	if err != nil {
		return nil, v1alpha1.NewConversionError(v1alpha1.EncodingFailed, v1alpha1.NoExecutor, v1alpha1.AnnotationJSONInput, err)
	}

	executors, err := c.executorJobs(task, name, user)
	if err != nil {
		return nil, err
	}

	plan := &v1alpha1.TaskmasterInput{
		Executors: executors,
		Inputs:    normalizeInputs(task.Inputs),
		Outputs:   normalizeOutputs(task.Outputs),
		Volumes:   deriveVolumes(task, c.config.ScratchPaths),
		Resources: planResources(task.Resources),
	}

	planJSON, err := c.codec.Marshal(plan)
	if err != nil {
		return nil, v1alpha1.NewConversionError(v1alpha1.EncodingFailed, v1alpha1.NoExecutor, v1alpha1.EnvJSONInput, err)
	}

	labels := map[string]string{
		v1alpha1.LabelJobType:       string(v1alpha1.RoleTaskmaster),
		v1alpha1.LabelCreatorUserID: user.ID,
	}
	if g := user.PrimaryGroup(); g != "" {
		labels[v1alpha1.LabelCreatorGroupName] = g
	}

	job := c.buildJob(v1alpha1.RoleTaskmaster, templates.Overrides{
		Name:   name,
		Labels: labels,
		Annotations: map[string]string{
			v1alpha1.AnnotationTesTaskName: task.Name,
			v1alpha1.AnnotationJSONInput:   taskJSON,
		},
		ServiceAccountName: c.config.ServiceAccountName,
		Container: v1alpha1.Container{
			Image: c.config.TaskmasterImage(),
			Args:  []string{v1alpha1.ArgJSONInput, v1alpha1.ArgNamespace, c.config.TaskmasterNamespace()},
			Env: []v1alpha1.EnvVar{
				{Name: v1alpha1.EnvJSONInput, Value: planJSON},
				{Name: v1alpha1.EnvJSONInputVersion, Value: v1alpha1.TaskmasterInputVersion},
			},
		},
	})

	log.V(util.Debug).Info("Converted task", "name", name, "taskName", task.Name, "executors", len(executors), "user", user.ID)
	return job, nil
}

// buildJob builds a job of either role from the template for that role.
// The restart policy is always Never; the taskmaster decides what happens when a pod fails.
func (c *Converter) buildJob(role v1alpha1.Role, o templates.Overrides) *v1alpha1.Job {
	o.RestartPolicy = v1alpha1.RestartPolicyNever
	return templates.Merge(c.templates.ForRole(role), o)
}

// checkEncodable reports values that validate accepts but that can't be serialized faithfully.
func checkEncodable(task *v1alpha1.TesTask) error {
	if r := task.Resources; r != nil {
		if r.RAMGb != nil && !isFinite(*r.RAMGb) {
			return v1alpha1.NewConversionError(v1alpha1.EncodingFailed, v1alpha1.NoExecutor, "resources.ram_gb", errors.Errorf("%v isn't a finite number", *r.RAMGb))
		}
		if !isFinite(r.DiskGb) {
			return v1alpha1.NewConversionError(v1alpha1.EncodingFailed, v1alpha1.NoExecutor, "resources.disk_gb", errors.Errorf("%v isn't a finite number", r.DiskGb))
		}
	}
	return checkContent(task.Inputs)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
