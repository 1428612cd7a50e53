//go:build windows && !wincp_singlethreaded

package winbackend

import "github.com/brickingsoft/wincp/pkg/workerpool"

func newSpawner(settings Settings) (Spawner, error) {
	return workerpool.New(
		workerpool.MaxThreads(settings.WorkerPoolMax),
		workerpool.IdleTimeout(settings.WorkerPoolIdleTimeout),
		workerpool.ThreadName("wincp-worker"),
	)
}
