package converter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jlewi/tesk/api/v1alpha1"
	"github.com/jlewi/tesk/pkg/codec"
	"github.com/jlewi/tesk/pkg/names"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/util/validation"
	"k8s.io/utils/pointer"
)

const runName = "task-1234abcd"

func testConfig() v1alpha1.ConverterConfigSpec {
	return v1alpha1.ConverterConfigSpec{
		TaskmasterImageName:    "docker.io/elixircloud/tesk-core-taskmaster",
		TaskmasterImageVersion: "v0.10.2",
		ServiceAccountName:     "taskmaster",
		ScratchPaths:           []string{"/tmp/tesk"},
	}
}

// countingGenerator returns runName and counts how often it is called.
type countingGenerator struct {
	mu    sync.Mutex
	calls int
	name  string
	err   error
}

func (g *countingGenerator) Generate() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return "", g.err
	}
	if g.name != "" {
		return g.name, nil
	}
	return runName, nil
}

func newTestConverter(t *testing.T, opts ...Option) (*Converter, *countingGenerator) {
	g := &countingGenerator{}
	opts = append([]Option{WithGenerator(g)}, opts...)
	c, err := New(testConfig(), opts...)
	require.NoError(t, err)
	return c, g
}

// twoStepTask is an ubuntu executor followed by an alpine executor with a workdir and an environment variable.
func twoStepTask() *v1alpha1.TesTask {
	return &v1alpha1.TesTask{
		Name:        "md5sum",
		Description: "compute a checksum",
		Inputs: []v1alpha1.TesInput{
			{
				Name: "data",
				URL:  "s3://bucket/data/in.txt",
				Path: "/data/in.txt",
				Type: v1alpha1.FileTypeFile,
			},
		},
		Outputs: []v1alpha1.TesOutput{
			{
				Name: "result",
				URL:  "s3://bucket/out/result.txt",
				Path: "/data/out/result.txt",
				Type: v1alpha1.FileTypeFile,
			},
		},
		Volumes: []string{"/data/shared"},
		Resources: &v1alpha1.TesResources{
			CPUCores: pointer.Int(4),
			RAMGb:    pointer.Float64(15.0),
			DiskGb:   100.0,
		},
		Executors: []v1alpha1.TesExecutor{
			{
				Image:   "ubuntu",
				Command: []string{"md5sum", "/data/in.txt"},
			},
			{
				Image:   "alpine",
				Command: []string{"cat", "checksum"},
				Workdir: "/data/out",
				Env: map[string]string{
					"SOME_VAR": "some value",
				},
			},
		},
	}
}

func envValue(t *testing.T, c *v1alpha1.Container, name string) string {
	t.Helper()
	for _, e := range c.Env {
		if e.Name == name {
			return e.Value
		}
	}
	t.Fatalf("Container %v has no environment variable %v", c.Name, name)
	return ""
}

func decodePlan(t *testing.T, job *v1alpha1.Job) *v1alpha1.TaskmasterInput {
	t.Helper()
	plan := &v1alpha1.TaskmasterInput{}
	require.NoError(t, json.Unmarshal([]byte(envValue(t, job.Container(), v1alpha1.EnvJSONInput)), plan))
	return plan
}

func keys(m map[string]interface{}) []string {
	k := make([]string, 0, len(m))
	for key := range m {
		k = append(k, key)
	}
	sort.Strings(k)
	return k
}

func Test_ConvertTaskmaster(t *testing.T) {
	c, g := newTestConverter(t)
	task := twoStepTask()

	job, err := c.Convert(context.Background(), task, v1alpha1.User{ID: "alice", Groups: []string{"genomics", "admins"}})
	require.NoError(t, err)
	assert.Equal(t, 1, g.calls)

	assert.Equal(t, "batch/v1", job.APIVersion)
	assert.Equal(t, "Job", job.Kind)
	assert.Equal(t, runName, job.Metadata.Name)
	assert.Equal(t, runName, job.Spec.Template.Metadata.Name)
	assert.Equal(t, map[string]string{
		"job-type":           "taskmaster",
		"creator-user-id":    "alice",
		"creator-group-name": "genomics",
	}, job.Metadata.Labels)
	assert.Equal(t, "md5sum", job.Metadata.Annotations["tes-task-name"])
	assert.Contains(t, job.Metadata.Annotations, "json-input")

	pod := job.Spec.Template.Spec
	assert.Equal(t, "Never", pod.RestartPolicy)
	assert.Equal(t, "taskmaster", pod.ServiceAccountName)
	require.Len(t, pod.Containers, 1)

	container := job.Container()
	assert.Equal(t, runName, container.Name)
	assert.Equal(t, "docker.io/elixircloud/tesk-core-taskmaster:v0.10.2", container.Image)
	assert.Equal(t, []string{"$(JSON_INPUT)", "-n", "default"}, container.Args)
	require.Len(t, container.Env, 2)
	assert.Equal(t, "JSON_INPUT", container.Env[0].Name)
	assert.Equal(t, "JSON_INPUT_VERSION", container.Env[1].Name)
	assert.Equal(t, v1alpha1.TaskmasterInputVersion, container.Env[1].Value)
}

func Test_ConvertEndToEnd(t *testing.T) {
	c, _ := newTestConverter(t)
	job, err := c.Convert(context.Background(), twoStepTask(), v1alpha1.User{ID: "alice"})
	require.NoError(t, err)

	raw := map[string]interface{}{}
	require.NoError(t, json.Unmarshal([]byte(envValue(t, job.Container(), v1alpha1.EnvJSONInput)), &raw))
	assert.Equal(t, []string{"executors", "inputs", "outputs", "resources", "volumes"}, keys(raw))

	resources := raw["resources"].(map[string]interface{})
	assert.Equal(t, float64(4), resources["cpu_cores"])
	assert.Equal(t, 100.0, resources["disk_gb"])
	assert.Equal(t, 15.0, resources["ram_gb"])

	plan := decodePlan(t, job)
	require.Len(t, plan.Executors, 2)
	for i, e := range plan.Executors {
		expectedName := fmt.Sprintf("%s-ex-0%d", runName, i)
		assert.Equal(t, expectedName, e.Metadata.Name)
		assert.Equal(t, expectedName, e.Spec.Template.Metadata.Name)
		assert.Equal(t, expectedName, e.Container().Name)
		assert.Equal(t, "Never", e.Spec.Template.Spec.RestartPolicy)
		assert.Equal(t, map[string]string{"cpu": "4", "memory": "15.0G"}, e.Container().Resources.Requests)
		assert.Equal(t, map[string]string{
			"job-type":        "executor",
			"taskmaster-name": runName,
			"creator-user-id": "alice",
			"tes-task-name":   "md5sum",
		}, e.Metadata.Labels)
	}

	assert.Equal(t, "ubuntu", plan.Executors[0].Container().Image)
	assert.Equal(t, []string{"md5sum", "/data/in.txt"}, plan.Executors[0].Container().Command)
	assert.Equal(t, "alpine", plan.Executors[1].Container().Image)
	assert.Equal(t, "/data/out", plan.Executors[1].Container().WorkingDir)
	assert.Equal(t, []v1alpha1.EnvVar{{Name: "SOME_VAR", Value: "some value"}}, plan.Executors[1].Container().Env)

	assert.Equal(t, []string{"/data/shared", "/tmp/tesk"}, plan.Volumes)
	assert.Len(t, plan.Inputs, 1)
	assert.Len(t, plan.Outputs, 1)
}

func Test_ExecutorContainerOmitsUnsetFields(t *testing.T) {
	c, _ := newTestConverter(t)
	job, err := c.Convert(context.Background(), twoStepTask(), v1alpha1.User{ID: "alice"})
	require.NoError(t, err)

	raw := struct {
		Executors []struct {
			Spec struct {
				Template struct {
					Spec struct {
						Containers []map[string]interface{} `json:"containers"`
					} `json:"spec"`
				} `json:"template"`
			} `json:"spec"`
		} `json:"executors"`
	}{}
	require.NoError(t, json.Unmarshal([]byte(envValue(t, job.Container(), v1alpha1.EnvJSONInput)), &raw))
	require.Len(t, raw.Executors, 2)

	first := raw.Executors[0].Spec.Template.Spec.Containers[0]
	assert.Equal(t, []string{"command", "image", "name", "resources"}, keys(first))

	second := raw.Executors[1].Spec.Template.Spec.Containers[0]
	assert.Equal(t, []string{"command", "env", "image", "name", "resources", "workingDir"}, keys(second))
}

func Test_CreatorLabelSharedByAllJobs(t *testing.T) {
	c, _ := newTestConverter(t)
	job, err := c.Convert(context.Background(), twoStepTask(), v1alpha1.User{ID: "bob"})
	require.NoError(t, err)

	assert.NotContains(t, job.Metadata.Labels, v1alpha1.LabelCreatorGroupName)

	plan := decodePlan(t, job)
	for _, e := range plan.Executors {
		assert.Equal(t, job.Metadata.Labels[v1alpha1.LabelCreatorUserID], e.Metadata.Labels[v1alpha1.LabelCreatorUserID])
		assert.Equal(t, job.Metadata.Annotations[v1alpha1.AnnotationTesTaskName], e.Metadata.Annotations[v1alpha1.AnnotationTesTaskName])
		assert.NotContains(t, e.Metadata.Labels, v1alpha1.LabelCreatorGroupName)
	}
}

func Test_TaskRoundTrip(t *testing.T) {
	c, _ := newTestConverter(t)
	task := twoStepTask()
	task.Tags = map[string]string{"project": "tes"}
	task.Volumes = []string{"/shared"}
	task.Inputs = append(task.Inputs, v1alpha1.TesInput{
		Name:    "script",
		Path:    "/scripts/run.sh",
		Content: "#!/bin/sh\necho <hello> & done\n",
	})
	original := twoStepTask()
	original.Tags = map[string]string{"project": "tes"}
	original.Volumes = []string{"/shared"}
	original.Inputs = append(original.Inputs, task.Inputs[1])

	job, err := c.Convert(context.Background(), task, v1alpha1.User{ID: "alice"})
	require.NoError(t, err)

	// The converter must not modify its input.
	if d := cmp.Diff(original, task); d != "" {
		t.Fatalf("Convert modified the task;\n%v", d)
	}

	actual := &v1alpha1.TesTask{}
	require.NoError(t, codec.JSON{}.Unmarshal(job.Metadata.Annotations[v1alpha1.AnnotationJSONInput], actual))
	if d := cmp.Diff(original, actual); d != "" {
		t.Errorf("json-input annotation doesn't match the task;\n%v", d)
	}
}

func Test_InlineInputsAreCounted(t *testing.T) {
	c, _ := newTestConverter(t)
	task := twoStepTask()
	task.Inputs = []v1alpha1.TesInput{
		{Name: "local", URL: "file:///mnt/reference/genome.fa", Path: "/data/genome.fa"},
		{Name: "remote", URL: "https://example.org/reads.fq", Path: "/data/reads.fq"},
		{Name: "inline", Content: "hello world", Path: "/data/hello.txt"},
	}

	job, err := c.Convert(context.Background(), task, v1alpha1.User{ID: "alice"})
	require.NoError(t, err)

	plan := decodePlan(t, job)
	require.Len(t, plan.Inputs, 3)
	assert.Equal(t, "hello world", plan.Inputs[2].Content)
	assert.Empty(t, plan.Inputs[2].URL)
	for _, i := range plan.Inputs {
		assert.Equal(t, v1alpha1.FileTypeFile, i.Type)
	}
}

func Test_TaskNameLabelIsSanitized(t *testing.T) {
	c, _ := newTestConverter(t)
	task := twoStepTask()
	task.Name = "My md5 task, run #2"

	job, err := c.Convert(context.Background(), task, v1alpha1.User{ID: "alice"})
	require.NoError(t, err)
	assert.Equal(t, "My md5 task, run #2", job.Metadata.Annotations[v1alpha1.AnnotationTesTaskName])

	plan := decodePlan(t, job)
	for _, e := range plan.Executors {
		assert.Equal(t, "My-md5-task--run--2", e.Metadata.Labels[v1alpha1.LabelTesTaskName])
		assert.Equal(t, "My md5 task, run #2", e.Metadata.Annotations[v1alpha1.AnnotationTesTaskName])
		for k, v := range e.Metadata.Labels {
			assert.Empty(t, validation.IsValidLabelValue(v), "label %v", k)
		}
	}
}

func Test_InvalidUserIsRejected(t *testing.T) {
	c, g := newTestConverter(t)
	_, err := c.Convert(context.Background(), twoStepTask(), v1alpha1.User{ID: "alice@example.org"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, v1alpha1.InvalidTask))

	convErr := &v1alpha1.ConversionError{}
	require.True(t, errors.As(err, &convErr))
	assert.Equal(t, "user.id", convErr.Field)
	assert.Equal(t, 0, g.calls)
}

func Test_VolumesOfFullTask(t *testing.T) {
	cfg := testConfig()
	cfg.ScratchPaths = nil
	c, err := New(cfg, WithGenerator(&countingGenerator{}))
	require.NoError(t, err)

	task := twoStepTask()
	task.Volumes = []string{"/tmp/tmp1", "/tmp/tmp2"}
	task.Inputs = []v1alpha1.TesInput{
		{Name: "file1", URL: "s3://my-object-store/file1", Path: "/some/path/to/file1", Type: v1alpha1.FileTypeFile},
		{Name: "dir1", URL: "http://remote-host/dir1", Path: "/some/path/to/dir1", Type: v1alpha1.FileTypeDirectory},
		{Name: "inline", Content: "hello world", Path: "/some/path/to/hello.txt"},
	}
	task.Outputs = []v1alpha1.TesOutput{
		{Name: "file", URL: "s3://my-object-store/output_file.txt", Path: "/outputs/output_file.txt", Type: v1alpha1.FileTypeFile},
		{Name: "dir", URL: "s3://my-object-store/output", Path: "/outputs/output", Type: v1alpha1.FileTypeDirectory},
	}

	job, err := c.Convert(context.Background(), task, v1alpha1.User{ID: "alice"})
	require.NoError(t, err)

	plan := decodePlan(t, job)
	assert.Equal(t, []string{"/tmp/tmp1", "/tmp/tmp2"}, plan.Volumes)
	assert.Len(t, plan.Inputs, 3)
	assert.Len(t, plan.Outputs, 2)
}

func Test_ExecutorOrderAndMany(t *testing.T) {
	c, _ := newTestConverter(t)
	task := twoStepTask()
	task.Executors = nil
	for i := 0; i < 101; i++ {
		task.Executors = append(task.Executors, v1alpha1.TesExecutor{
			Image:   "alpine",
			Command: []string{"echo", fmt.Sprintf("%d", i)},
		})
	}

	job, err := c.Convert(context.Background(), task, v1alpha1.User{ID: "alice"})
	require.NoError(t, err)

	plan := decodePlan(t, job)
	require.Len(t, plan.Executors, 101)
	for i, e := range plan.Executors {
		assert.Equal(t, []string{"echo", fmt.Sprintf("%d", i)}, e.Container().Command)
	}
	assert.Equal(t, "task-1234abcd-ex-00", plan.Executors[0].Metadata.Name)
	assert.Equal(t, "task-1234abcd-ex-99", plan.Executors[99].Metadata.Name)
	assert.Equal(t, "task-1234abcd-ex-100", plan.Executors[100].Metadata.Name)
}

func Test_ConvertWithoutResources(t *testing.T) {
	c, _ := newTestConverter(t)
	task := twoStepTask()
	task.Resources = nil

	job, err := c.Convert(context.Background(), task, v1alpha1.User{ID: "alice"})
	require.NoError(t, err)

	plan := decodePlan(t, job)
	assert.Equal(t, v1alpha1.PlanResources{}, plan.Resources)
	for _, e := range plan.Executors {
		assert.Nil(t, e.Container().Resources.Requests)
	}
}

func Test_ConvertNamespace(t *testing.T) {
	cfg := testConfig()
	cfg.Namespace = "tesk"
	c, err := New(cfg, WithGenerator(&countingGenerator{}))
	require.NoError(t, err)

	job, err := c.Convert(context.Background(), twoStepTask(), v1alpha1.User{ID: "alice"})
	require.NoError(t, err)
	assert.Equal(t, []string{"$(JSON_INPUT)", "-n", "tesk"}, job.Container().Args)
}

func Test_ConvertErrors(t *testing.T) {
	type testCase struct {
		name      string
		task      func() *v1alpha1.TesTask
		generator *countingGenerator
		codec     codec.Codec
		kind      v1alpha1.ErrorKind
		field     string
		executor  int
		calls     int
	}

	cases := []testCase{
		{
			name: "no-executors",
			task: func() *v1alpha1.TesTask {
				task := twoStepTask()
				task.Executors = []v1alpha1.TesExecutor{}
				return task
			},
			kind:     v1alpha1.InvalidTask,
			field:    "executors",
			executor: v1alpha1.NoExecutor,
			calls:    0,
		},
		{
			name: "nil-task",
			task: func() *v1alpha1.TesTask {
				return nil
			},
			kind:     v1alpha1.InvalidTask,
			executor: v1alpha1.NoExecutor,
		},
		{
			name: "missing-image",
			task: func() *v1alpha1.TesTask {
				task := twoStepTask()
				task.Executors[1].Image = ""
				return task
			},
			kind:     v1alpha1.InvalidTask,
			field:    "executors[1].image",
			executor: 1,
		},
		{
			name: "generator-error",
			task: twoStepTask,
			generator: &countingGenerator{
				err: fmt.Errorf("out of entropy"),
			},
			kind:     v1alpha1.NameGenerationFailed,
			executor: v1alpha1.NoExecutor,
			calls:    1,
		},
		{
			name: "invalid-name",
			task: twoStepTask,
			generator: &countingGenerator{
				name: "Not_A_Label",
			},
			kind:     v1alpha1.NameGenerationFailed,
			executor: v1alpha1.NoExecutor,
			calls:    1,
		},
		{
			name: "name-too-long-for-executors",
			task: twoStepTask,
			generator: &countingGenerator{
				name: "task-0123456789012345678901234567890123456789012345678901234",
			},
			kind:     v1alpha1.NameGenerationFailed,
			executor: 0,
			calls:    1,
		},
		{
			name: "nan-ram",
			task: func() *v1alpha1.TesTask {
				task := twoStepTask()
				task.Resources.RAMGb = pointer.Float64(math.NaN())
				return task
			},
			kind:     v1alpha1.EncodingFailed,
			field:    "resources.ram_gb",
			executor: v1alpha1.NoExecutor,
		},
		{
			name: "invalid-content",
			task: func() *v1alpha1.TesTask {
				task := twoStepTask()
				task.Inputs = append(task.Inputs, v1alpha1.TesInput{
					Path:    "/data/binary",
					Content: string([]byte{0xff, 0xfe, 0xfd}),
				})
				return task
			},
			kind:     v1alpha1.EncodingFailed,
			field:    "inputs[1].content",
			executor: v1alpha1.NoExecutor,
		},
		{
			name:     "codec-error",
			task:     twoStepTask,
			codec:    failingCodec{},
			kind:     v1alpha1.EncodingFailed,
			field:    "json-input",
			executor: v1alpha1.NoExecutor,
			calls:    1,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			g := c.generator
			if g == nil {
				g = &countingGenerator{}
			}
			opts := []Option{WithGenerator(g)}
			if c.codec != nil {
				opts = append(opts, WithCodec(c.codec))
			}
			conv, err := New(testConfig(), opts...)
			require.NoError(t, err)

			job, err := conv.Convert(context.Background(), c.task(), v1alpha1.User{ID: "alice"})
			assert.Nil(t, job)
			require.Error(t, err)
			assert.True(t, errors.Is(err, c.kind), "error %v isn't of kind %v", err, c.kind)

			convErr := &v1alpha1.ConversionError{}
			require.True(t, errors.As(err, &convErr))
			assert.Equal(t, c.field, convErr.Field)
			assert.Equal(t, c.executor, convErr.Executor)
			assert.Equal(t, c.calls, g.calls)
		})
	}
}

type failingCodec struct{}

func (failingCodec) Marshal(v interface{}) (string, error) {
	return "", fmt.Errorf("can't serialize %T", v)
}

func (failingCodec) Unmarshal(data string, v interface{}) error {
	return fmt.Errorf("can't deserialize")
}

func Test_NewErrors(t *testing.T) {
	cfg := testConfig()
	cfg.TaskmasterImageName = ""
	_, err := New(cfg)
	assert.Error(t, err)

	_, err = New(testConfig(), WithTemplates(nil))
	assert.Error(t, err)

	_, err = New(testConfig(), WithGenerator(nil))
	assert.Error(t, err)
}

func Test_ConvertConcurrent(t *testing.T) {
	var mu sync.Mutex
	next := 0
	g := names.FuncGenerator(func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		next++
		return fmt.Sprintf("task-%08d", next), nil
	})
	c, err := New(testConfig(), WithGenerator(g))
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]*v1alpha1.Job, 20)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			job, err := c.Convert(context.Background(), twoStepTask(), v1alpha1.User{ID: "alice"})
			assert.NoError(t, err)
			results[i] = job
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, j := range results {
		require.NotNil(t, j)
		assert.False(t, seen[j.Metadata.Name], "duplicate job %v", j.Metadata.Name)
		seen[j.Metadata.Name] = true
	}
}
