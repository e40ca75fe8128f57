package converter

import (
	"strconv"
	"strings"

	"github.com/jlewi/tesk/api/v1alpha1"
	"k8s.io/utils/pointer"
)

const (
	resourceCPU    = "cpu"
	resourceMemory = "memory"
)

// resourceRequests returns the requests set on every executor container.
// A request is set for every field the task declares, including an explicit 0. Only requests are set;
// executors may use more than they request when the node has room.
func resourceRequests(r *v1alpha1.TesResources) map[string]string {
	requests := map[string]string{}
	if r == nil {
		return requests
	}
	if r.CPUCores != nil {
		requests[resourceCPU] = strconv.Itoa(*r.CPUCores)
	}
	if r.RAMGb != nil {
		requests[resourceMemory] = FormatGigabytes(*r.RAMGb)
	}
	return requests
}

// FormatGigabytes formats gb as a memory quantity in gigabytes.
// The decimal point is always kept so that 15 is formatted as 15.0G and 1.5 as 1.5G.
func FormatGigabytes(gb float64) string {
	s := strconv.FormatFloat(gb, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s + "G"
}

// planResources copies the resources of the task verbatim.
func planResources(r *v1alpha1.TesResources) v1alpha1.PlanResources {
	if r == nil {
		return v1alpha1.PlanResources{}
	}
	p := v1alpha1.PlanResources{
		CPUCores:    pointer.IntDeref(r.CPUCores, 0),
		Preemptible: r.Preemptible,
		RAMGb:       pointer.Float64Deref(r.RAMGb, 0),
		DiskGb:      r.DiskGb,
	}
	if len(r.Zones) > 0 {
		p.Zones = append([]string{}, r.Zones...)
	}
	return p
}
