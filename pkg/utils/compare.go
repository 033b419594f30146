package utils

import (
	"github.com/nats-io/nats.go"
)

// StreamConfigEqual compares two NATS stream configurations for equality
// Only the properties the outcome stream is provisioned with are compared
func StreamConfigEqual(a, b nats.StreamConfig) bool {
	isCfgSame := a.Name == b.Name &&
		a.Retention == b.Retention &&
		a.MaxMsgs == b.MaxMsgs &&
		a.MaxAge == b.MaxAge &&
		a.Storage == b.Storage

	isSubjectsSame := func() bool {
		if len(a.Subjects) != len(b.Subjects) {
			return false
		}
		for i, subject := range a.Subjects {
			if subject != b.Subjects[i] {
				return false
			}
		}
		return true
	}

	return isCfgSame && isSubjectsSame()
}
