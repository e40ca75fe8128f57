package converter

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/jlewi/tesk/api/v1alpha1"
	"github.com/jlewi/tesk/pkg/names"
	"github.com/jlewi/tesk/pkg/templates"
)

// ExecutorName returns the name of the job of the executor at index.
// Indices are zero padded to two digits; from 100 on the index is printed as is e.g. task-1234abcd-ex-100.
func ExecutorName(taskmaster string, index int) string {
	return fmt.Sprintf("%s%s%02d", taskmaster, v1alpha1.ExecutorSeparator, index)
}

// executorJobs builds one job per executor in the order of the task.
func (c *Converter) executorJobs(task *v1alpha1.TesTask, taskmaster string, user v1alpha1.User) ([]*v1alpha1.Job, error) {
	requests := resourceRequests(task.Resources)
	jobs := make([]*v1alpha1.Job, 0, len(task.Executors))
	for i, e := range task.Executors {
		name := ExecutorName(taskmaster, i)
		if err := names.Validate(name); err != nil {
			return nil, v1alpha1.NewConversionError(v1alpha1.NameGenerationFailed, i, "", err)
		}

		container := v1alpha1.Container{
			Image:      e.Image,
			Command:    wrapCommand(e),
			WorkingDir: e.Workdir,
			Env:        envVars(e.Env),
		}
		if len(requests) > 0 {
			container.Resources.Requests = copyRequests(requests)
		}

		jobs = append(jobs, c.buildJob(v1alpha1.RoleExecutor, templates.Overrides{
			Name: name,
			Labels: map[string]string{
				v1alpha1.LabelJobType:        string(v1alpha1.RoleExecutor),
				v1alpha1.LabelTaskmasterName: taskmaster,
				v1alpha1.LabelCreatorUserID:  user.ID,
				v1alpha1.LabelTesTaskName:    labelValue(task.Name),
			},
			Annotations: map[string]string{
				v1alpha1.AnnotationTesTaskName: task.Name,
			},
			Container: container,
		}))
	}
	return jobs, nil
}

// envVars returns the variables sorted by name or nil if there are none.
func envVars(env map[string]string) []v1alpha1.EnvVar {
	if len(env) == 0 {
		return nil
	}
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	vars := make([]v1alpha1.EnvVar, 0, len(keys))
	for _, k := range keys {
		vars = append(vars, v1alpha1.EnvVar{Name: k, Value: env[k]})
	}
	return vars
}

func copyRequests(r map[string]string) map[string]string {
	out := make(map[string]string, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// wrapCommand returns the command of the executor.
// If the executor redirects stdin, stdout or stderr the command is run by /bin/sh with the redirections
// appended.
func wrapCommand(e v1alpha1.TesExecutor) []string {
	if e.Stdin == "" && e.Stdout == "" && e.Stderr == "" {
		return append([]string{}, e.Command...)
	}

	parts := make([]string, 0, len(e.Command)+6)
	for _, a := range e.Command {
		parts = append(parts, shellQuote(a))
	}
	if e.Stdin != "" {
		parts = append(parts, "<", shellQuote(e.Stdin))
	}
	if e.Stdout != "" {
		parts = append(parts, ">", shellQuote(e.Stdout))
	}
	if e.Stderr != "" {
		parts = append(parts, "2>", shellQuote(e.Stderr))
	}
	return []string{"/bin/sh", "-c", strings.Join(parts, " ")}
}

var shellSafe = regexp.MustCompile(`^[A-Za-z0-9_@%+=:,./-]+$`)

// shellQuote quotes s so that /bin/sh treats it as a single word.
func shellQuote(s string) string {
	if shellSafe.MatchString(s) {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}
