package instance

import (
	"testing"

	"github.com/elastic/go-sysinfo"
	"github.com/stretchr/testify/require"
)

func TestCheckPinnedHostBudgetAllowsSmallRequest(t *testing.T) {
	status := checkPinnedHostBudget(1024)
	require.True(t, status.Ok(), status.Error())
}

// When host memory can be determined, a request for effectively all
// addressable memory must be rejected; when it can't (e.g. a sandboxed
// environment with no /proc access), checkPinnedHostBudget degrades to
// allowing the request rather than blocking warmup on an unanswerable
// sizing question.
func TestCheckPinnedHostBudgetRejectsUnreasonableRequestWhenHostMemoryKnown(t *testing.T) {
	status := checkPinnedHostBudget(^uint64(0))
	if host, err := sysinfo.Host(); err == nil {
		if _, err := host.Memory(); err == nil {
			require.False(t, status.Ok())
			return
		}
	}
	require.True(t, status.Ok())
}
