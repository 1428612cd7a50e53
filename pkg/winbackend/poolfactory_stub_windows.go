//go:build windows && wincp_singlethreaded

package winbackend

import "github.com/brickingsoft/wincp/pkg/workerpool"

func newSpawner(settings Settings) (Spawner, error) {
	return workerpool.NewStub(), nil
}
