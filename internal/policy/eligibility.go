package policy

import (
	"fmt"
	"strings"

	"github.com/cloudnap/cloudnap/internal/models"
)

// ShutdownTagKey is the opt-out tag key. An instance tagged Shutdown=no (any
// case in the value) is never stopped.
const ShutdownTagKey = "Shutdown"

// DefaultExcludedFamilies are the instance-type family prefixes excluded by
// default: GPU/accelerator classes whose workloads idle the CPU by design.
var DefaultExcludedFamilies = []string{"p", "g"}

// SkipReason decides from metadata alone whether an instance should be
// evaluated. It returns an empty string for eligible instances, otherwise a
// human-readable reason. Rules run in order; the first match wins.
func SkipReason(inst models.InstanceInfo, excludedFamilies []string) string {
	instanceType := strings.ToLower(inst.InstanceType)
	for _, family := range excludedFamilies {
		if family == "" {
			continue
		}
		if strings.HasPrefix(instanceType, strings.ToLower(family)) {
			return fmt.Sprintf("excluded instance family (%s)", inst.InstanceType)
		}
	}

	if v, ok := inst.Tags[ShutdownTagKey]; ok && strings.EqualFold(v, "no") {
		return "opt-out tag (Shutdown=no)"
	}

	return ""
}
