// Copyright 2024 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package event_test

import (
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/blinklabs-io/langjourney/event"
	"github.com/blinklabs-io/langjourney/internal/test/testutil"
	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const testEvtType event.EventType = "test.event"

func receive(t *testing.T, ch <-chan event.Event) event.Event {
	t.Helper()
	return testutil.RequireReceive(t, ch, time.Second, "event")
}

func TestEventBusSingleSubscriber(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	_, subCh := eb.Subscribe(testEvtType)
	eb.Publish(testEvtType, event.NewEvent(testEvtType, 999))
	evt := receive(t, subCh)
	assert.Equal(t, testEvtType, evt.Type)
	assert.Equal(t, 999, evt.Data)
}

func TestEventBusMultipleSubscribers(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	_, sub1Ch := eb.Subscribe(testEvtType)
	_, sub2Ch := eb.Subscribe(testEvtType)
	eb.Publish(testEvtType, event.NewEvent(testEvtType, "hello"))
	assert.Equal(t, "hello", receive(t, sub1Ch).Data)
	assert.Equal(t, "hello", receive(t, sub2Ch).Data)
}

func TestEventBusOtherTypeNotDelivered(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	_, subCh := eb.Subscribe(testEvtType)
	eb.Publish("other.event", event.NewEvent("other.event", 1))
	testutil.RequireNoReceive(t, subCh, 50*time.Millisecond, "event of another type")
}

func TestEventBusUnsubscribe(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	subId, subCh := eb.Subscribe(testEvtType)
	eb.Unsubscribe(testEvtType, subId)
	eb.Publish(testEvtType, event.NewEvent(testEvtType, 1))
	select {
	case _, ok := <-subCh:
		assert.False(t, ok, "received unexpected event")
	case <-time.After(time.Second):
		t.Fatal("subscriber channel was not closed after Unsubscribe")
	}
}

func TestEventBusSubscribeFuncOrder(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	var mu sync.Mutex
	var got []int
	done := make(chan struct{})
	eb.SubscribeFunc(testEvtType, func(evt event.Event) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, evt.Data.(int))
		if len(got) == 50 {
			close(done)
		}
	})
	for i := range 50 {
		eb.Publish(testEvtType, event.NewEvent(testEvtType, i))
	}
	testutil.RequireClosed(t, done, 2*time.Second, "ordered events")
	eb.Stop()
	mu.Lock()
	defer mu.Unlock()
	for i, v := range got {
		require.Equal(t, i, v)
	}
}

func TestEventBusPublishAsync(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	var count atomic.Int32
	done := make(chan struct{})
	eb.SubscribeFunc(testEvtType, func(event.Event) {
		if count.Add(1) == 10 {
			close(done)
		}
	})
	for i := range 10 {
		require.True(t, eb.PublishAsync(testEvtType, event.NewEvent(testEvtType, i)))
	}
	testutil.RequireClosed(t, done, 2*time.Second, "async events")
	eb.Stop()
	assert.False(t, eb.PublishAsync(testEvtType, event.NewEvent(testEvtType, 0)))
}

type failingSubscriber struct {
	closed atomic.Bool
}

func (f *failingSubscriber) Deliver(event.Event) error {
	panic("boom")
}

func (f *failingSubscriber) Close() {
	f.closed.Store(true)
}

func TestEventBusFailingSubscriberRemoved(t *testing.T) {
	reg := prometheus.NewRegistry()
	eb := event.NewEventBus(reg, nil)
	defer eb.Stop()
	sub := &failingSubscriber{}
	eb.RegisterSubscriber(testEvtType, sub)
	_, okCh := eb.Subscribe(testEvtType)
	eb.Publish(testEvtType, event.NewEvent(testEvtType, 1))
	receive(t, okCh)
	assert.True(t, sub.closed.Load())
	expected := `
# HELP event_bus_delivery_errors_total failed or dropped event deliveries
# TYPE event_bus_delivery_errors_total counter
event_bus_delivery_errors_total{kind="remote",type="test.event"} 1
`
	require.NoError(t, promtestutil.GatherAndCompare(
		reg,
		strings.NewReader(expected),
		"event_bus_delivery_errors_total",
	))
	// The second publish only reaches the healthy subscriber
	eb.Publish(testEvtType, event.NewEvent(testEvtType, 2))
	assert.Equal(t, 2, receive(t, okCh).Data)
}

func TestEventBusMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	eb := event.NewEventBus(reg, nil)
	subId, _ := eb.Subscribe(testEvtType)
	eb.SubscribeFunc(testEvtType, func(event.Event) {})
	count, err := promtestutil.GatherAndCount(reg, "event_bus_subscribers")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	eb.Unsubscribe(testEvtType, subId)
	eb.Publish(testEvtType, event.NewEvent(testEvtType, 1))
	eb.Publish(testEvtType, event.NewEvent(testEvtType, 2))
	count, err = promtestutil.GatherAndCount(reg, "event_bus_events_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	eb.Stop()
}

func TestEventBusStopClosesSubscribers(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	_, subCh := eb.Subscribe(testEvtType)
	eb.Stop()
	// Stop is idempotent
	eb.Stop()
	_, ok := <-subCh
	assert.False(t, ok)
	// Subscribing after stop yields a closed channel
	_, lateCh := eb.Subscribe(testEvtType)
	_, ok = <-lateCh
	assert.False(t, ok)
}
