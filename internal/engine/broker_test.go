package engine_test

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/seantiz/conveyor/internal/engine"
	"github.com/seantiz/conveyor/internal/model"
)

func progressAt(step int) model.IntermediateResult {
	return model.IntermediateResult{
		Timestamp: time.Now().UTC(),
		Data:      json.RawMessage(fmt.Sprintf(`{"step":%d}`, step)),
	}
}

func TestBrokerPublishReachesSubscriber(t *testing.T) {
	b := engine.NewBroker()

	ch, unsubscribe := b.Subscribe("job-1")
	defer unsubscribe()

	want := progressAt(1)
	b.Publish("job-1", want)

	select {
	case got := <-ch:
		if string(got.Data) != string(want.Data) {
			t.Errorf("received %s, want %s", got.Data, want.Data)
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber never received published result")
	}
}

func TestBrokerIsolatesJobs(t *testing.T) {
	b := engine.NewBroker()

	ch, unsubscribe := b.Subscribe("job-a")
	defer unsubscribe()

	b.Publish("job-b", progressAt(1))

	select {
	case res := <-ch:
		t.Errorf("subscriber for job-a received %s published to job-b", res.Data)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBrokerCloseEndsStream(t *testing.T) {
	b := engine.NewBroker()

	ch, unsubscribe := b.Subscribe("job-1")
	defer unsubscribe()

	b.Publish("job-1", progressAt(1))
	b.Close("job-1")

	// Buffered result still arrives, then the channel closes.
	if _, ok := <-ch; !ok {
		t.Fatal("channel closed before delivering buffered result")
	}
	select {
	case _, ok := <-ch:
		if ok {
			t.Error("received result after Close")
		}
	case <-time.After(time.Second):
		t.Fatal("channel never closed after Close")
	}
}

func TestBrokerLateSubscriberGetsClosedChannel(t *testing.T) {
	b := engine.NewBroker()
	b.Close("finished-job")

	ch, unsubscribe := b.Subscribe("finished-job")
	defer unsubscribe()

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("late subscriber received a result on a finished job")
		}
	case <-time.After(time.Second):
		t.Fatal("late subscriber channel was not closed")
	}
}

func TestBrokerUnsubscribeStopsDelivery(t *testing.T) {
	b := engine.NewBroker()

	ch, unsubscribe := b.Subscribe("job-1")
	unsubscribe()

	b.Publish("job-1", progressAt(1))

	select {
	case res, ok := <-ch:
		if ok {
			t.Errorf("received %s after unsubscribe", res.Data)
		}
	case <-time.After(50 * time.Millisecond):
	}
}
