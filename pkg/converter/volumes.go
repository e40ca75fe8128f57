package converter

import (
	"net/url"
	"path"

	"github.com/jlewi/tesk/api/v1alpha1"
	"github.com/jlewi/tesk/pkg/util"
)

// deriveVolumes returns the directories the taskmaster mounts into every executor.
//
// In order, without duplicates:
//  1. the volumes declared by the task
//  2. the parent directory of URL inputs, for each parent shared by at least two inputs from the same
//     source (scheme and host); inputs alone in their directory are mounted as single files
//  3. the scratch paths
//
// Outputs never add volumes; the taskmaster's filer mounts their paths itself.
// Relative paths and the root directory are never mounted.
func deriveVolumes(task *v1alpha1.TesTask, scratch []string) []string {
	candidates := []string{}
	candidates = append(candidates, task.Volumes...)
	candidates = append(candidates, sharedInputDirs(task.Inputs)...)
	candidates = append(candidates, scratch...)

	volumes := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c == "" || !path.IsAbs(c) {
			continue
		}
		c = path.Clean(c)
		if c == "/" {
			continue
		}
		volumes = append(volumes, c)
	}
	return util.UniqueStrings(volumes)
}

type inputGroup struct {
	source string
	dir    string
}

// sharedInputDirs returns the parent directories shared by URL inputs of the same source in the
// order the directories first appear.
func sharedInputDirs(inputs []v1alpha1.TesInput) []string {
	counts := map[inputGroup]int{}
	order := []inputGroup{}
	for _, i := range inputs {
		if i.Content != "" || i.URL == "" {
			continue
		}
		g := inputGroup{source: inputSource(i.URL), dir: path.Dir(path.Clean(i.Path))}
		if _, ok := counts[g]; !ok {
			order = append(order, g)
		}
		counts[g]++
	}

	dirs := []string{}
	for _, g := range order {
		if counts[g] > 1 {
			dirs = append(dirs, g.dir)
		}
	}
	return dirs
}

// inputSource returns scheme://host of the URL or the URL itself if it can't be parsed.
func inputSource(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return u.Scheme + "://" + u.Host
}
