package manager

import (
	"time"

	"mpvd/pkg/types"
)

// Info returns a point-in-time view of a registered instance.
func (m *Manager) Info(id InstanceID) (InstanceInfo, error) {
	inst, err := m.lookup(id)
	if err != nil {
		return InstanceInfo{}, err
	}
	return inst.info(), nil
}

// Status builds a detailed status response for /status.
func (m *Manager) Status() types.StatusResponse {
	m.mu.Lock()
	insts := make([]*Instance, 0, len(m.instances))
	for _, id := range sortedIDs(m.instances) {
		insts = append(insts, m.instances[id])
	}
	resp := types.StatusResponse{
		PendingTeardowns: len(m.teardowns),
		CreatedTotal:     m.createdTotal,
		DestroyedTotal:   m.destroyedTotal,
		LeakedTotal:      m.leakedTotal,
		UptimeSeconds:    int64(time.Since(m.startTime).Seconds()),
		ServerTimeUnix:   time.Now().Unix(),
	}
	m.mu.Unlock()
	if v, ok := m.engine.(interface{ Version() string }); ok {
		resp.EngineVersion = v.Version()
	}

	resp.Instances = make([]types.InstanceStatus, 0, len(insts))
	for _, inst := range insts {
		info := inst.info()
		resp.Instances = append(resp.Instances, types.InstanceStatus{
			ID:              uint64(info.ID),
			Label:           info.Label,
			State:           string(info.State),
			HasSink:         info.HasSink,
			BridgeRunning:   info.BridgeRunning,
			SurfaceAttached: info.SurfaceAttached,
			CreatedUnix:     info.Created.Unix(),
		})
	}
	return resp
}
