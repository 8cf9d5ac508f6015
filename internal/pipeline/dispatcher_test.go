package pipeline_test

import (
	"testing"

	"transit-guard/monitor/internal/domain"
	"transit-guard/monitor/internal/metrics"
	"transit-guard/monitor/internal/pipeline"
)

func TestDispatchDeliversToBothChannels(t *testing.T) {
	d := pipeline.NewDispatcher(4, 4)
	defer d.Close()

	r := domain.Reading{TruckID: "T1", WeightKg: 25000}
	d.Dispatch(r)

	select {
	case got := <-d.ArchiveChan:
		if got.TruckID != "T1" {
			t.Errorf("Wrong reading on archive channel: %+v", got)
		}
	default:
		t.Error("Expected reading on archive channel")
	}

	select {
	case got := <-d.StateChan:
		if got.TruckID != "T1" {
			t.Errorf("Wrong reading on state channel: %+v", got)
		}
	default:
		t.Error("Expected reading on state channel")
	}
}

func TestDispatchNeverBlocksWhenFull(t *testing.T) {
	d := pipeline.NewDispatcher(1, 1)
	defer d.Close()

	archiveDropsBefore := metrics.ArchiveChannelDrops.Load()
	stateDropsBefore := metrics.StateChannelDrops.Load()

	d.Dispatch(domain.Reading{TruckID: "T1"})
	d.Dispatch(domain.Reading{TruckID: "T2"}) // both channels full, must not block

	if got := metrics.ArchiveChannelDrops.Load() - archiveDropsBefore; got != 1 {
		t.Errorf("Expected 1 archive drop, got %d", got)
	}
	if got := metrics.StateChannelDrops.Load() - stateDropsBefore; got != 1 {
		t.Errorf("Expected 1 state drop, got %d", got)
	}

	// The first reading is still intact.
	if got := <-d.ArchiveChan; got.TruckID != "T1" {
		t.Errorf("Expected T1 on archive channel, got %s", got.TruckID)
	}
}
