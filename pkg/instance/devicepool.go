package instance

import (
	"github.com/elastic/go-sysinfo"

	"github.com/modelruntime/servecore/pkg/coreerrors"
)

// maxPinnedHostFraction bounds how much of observed host RAM a single
// instance's warmup pinned-host slab pool may claim, so a misconfigured
// warmup sample can't pin an unbounded fraction of the host's memory.
const maxPinnedHostFraction = 0.25

// checkPinnedHostBudget fails with UNAVAILABLE if requestedBytes exceeds a
// conservative fraction of observed host RAM. Host memory that can't be
// determined is treated as "unknown, allow it" rather than blocking warmup
// entirely on a sizing concern this core can't answer.
func checkPinnedHostBudget(requestedBytes uint64) coreerrors.Status {
	host, err := sysinfo.Host()
	if err != nil {
		return coreerrors.Status{}
	}
	mem, err := host.Memory()
	if err != nil {
		return coreerrors.Status{}
	}

	budget := uint64(float64(mem.Total) * maxPinnedHostFraction)
	if requestedBytes > budget {
		return coreerrors.New(coreerrors.Unavailable,
			"warmup pinned-host allocation of %d bytes exceeds %.0f%% of observed host RAM (%d bytes)",
			requestedBytes, maxPinnedHostFraction*100, mem.Total)
	}
	return coreerrors.Status{}
}
