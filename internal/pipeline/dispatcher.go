package pipeline

import (
	"transit-guard/monitor/internal/domain"
	"transit-guard/monitor/internal/metrics"
)

// Dispatcher fans each reading out to the archive and live-state sinks.
// Sends never block: a full channel drops the reading and bumps a counter,
// so a slow sink cannot stall the analyzer loop.
type Dispatcher struct {
	ArchiveChan chan domain.Reading
	StateChan   chan domain.Reading
}

func NewDispatcher(archiveSize, stateSize int) *Dispatcher {
	return &Dispatcher{
		ArchiveChan: make(chan domain.Reading, archiveSize),
		StateChan:   make(chan domain.Reading, stateSize),
	}
}

func (d *Dispatcher) Dispatch(r domain.Reading) {
	select {
	case d.ArchiveChan <- r:
	default:
		metrics.ArchiveChannelDrops.Add(1)
	}

	select {
	case d.StateChan <- r:
	default:
		metrics.StateChannelDrops.Add(1)
	}
}

// Close shuts both channels so the writers can drain and exit.
func (d *Dispatcher) Close() {
	close(d.ArchiveChan)
	close(d.StateChan)
}
