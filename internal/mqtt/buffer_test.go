package mqtt

import (
	"testing"
)

func msg(b byte) bufferedMsg {
	return bufferedMsg{topic: "fitness/trip/points", payload: []byte{b}}
}

func payloads(msgs []bufferedMsg) []byte {
	var out []byte
	for _, m := range msgs {
		out = append(out, m.payload[0])
	}
	return out
}

func TestRingBufferEmptyDrain(t *testing.T) {
	rb := newRingBuffer(10)
	if got := rb.drainAll(); got != nil {
		t.Errorf("expected nil from empty drain, got %d items", len(got))
	}
}

func TestRingBufferPushAndDrain(t *testing.T) {
	rb := newRingBuffer(10)
	for i := 0; i < 5; i++ {
		rb.push(msg(byte(i)))
	}

	got := payloads(rb.drainAll())
	if string(got) != string([]byte{0, 1, 2, 3, 4}) {
		t.Errorf("got %v, want [0 1 2 3 4]", got)
	}
	if again := rb.drainAll(); again != nil {
		t.Errorf("expected nil from second drain, got %d items", len(again))
	}
}

func TestRingBufferOverflowDropsOldest(t *testing.T) {
	rb := newRingBuffer(5)
	for i := 0; i < 8; i++ {
		rb.push(msg(byte(i)))
	}
	if rb.dropped != 3 {
		t.Errorf("dropped: got %d, want 3", rb.dropped)
	}

	got := payloads(rb.drainAll())
	if string(got) != string([]byte{3, 4, 5, 6, 7}) {
		t.Errorf("got %v, want [3 4 5 6 7]", got)
	}
	if rb.dropped != 0 {
		t.Errorf("dropped after drain: got %d, want 0", rb.dropped)
	}
}

func TestRingBufferMultipleCycles(t *testing.T) {
	rb := newRingBuffer(5)

	for i := 0; i < 3; i++ {
		rb.push(msg(byte(i)))
	}
	if got := rb.drainAll(); len(got) != 3 {
		t.Fatalf("cycle 1: expected 3 items, got %d", len(got))
	}

	for i := 10; i < 14; i++ {
		rb.push(msg(byte(i)))
	}
	got := payloads(rb.drainAll())
	if string(got) != string([]byte{10, 11, 12, 13}) {
		t.Errorf("cycle 2: got %v, want [10 11 12 13]", got)
	}
}

func TestRingBufferRequeue(t *testing.T) {
	rb := newRingBuffer(5)
	rb.push(msg(20))

	rb.requeue([]bufferedMsg{msg(1), msg(2)})
	got := payloads(rb.drainAll())
	if string(got) != string([]byte{1, 2, 20}) {
		t.Errorf("got %v, want [1 2 20]", got)
	}
}

func TestRingBufferRequeueOverCapacity(t *testing.T) {
	rb := newRingBuffer(3)
	rb.push(msg(9))

	rb.requeue([]bufferedMsg{msg(1), msg(2), msg(3)})
	got := payloads(rb.drainAll())
	if string(got) != string([]byte{1, 2, 3}) {
		t.Errorf("got %v, want [1 2 3]", got)
	}
}

func TestRingBufferLen(t *testing.T) {
	rb := newRingBuffer(10)
	if rb.len() != 0 {
		t.Errorf("expected len 0, got %d", rb.len())
	}

	rb.push(msg(0))
	rb.push(msg(1))
	if rb.len() != 2 {
		t.Errorf("expected len 2, got %d", rb.len())
	}

	rb.drainAll()
	if rb.len() != 0 {
		t.Errorf("expected len 0 after drain, got %d", rb.len())
	}
}

func TestRingBufferPreservesFields(t *testing.T) {
	rb := newRingBuffer(10)
	rb.push(bufferedMsg{
		topic:    "fitness/trip/gps",
		payload:  []byte(`{"gps":{}}`),
		qos:      1,
		retained: true,
	})

	got := rb.drainAll()
	if len(got) != 1 {
		t.Fatalf("expected 1 item, got %d", len(got))
	}
	if got[0].topic != "fitness/trip/gps" {
		t.Errorf("topic: got %s, want fitness/trip/gps", got[0].topic)
	}
	if string(got[0].payload) != `{"gps":{}}` {
		t.Errorf("payload: got %s", got[0].payload)
	}
	if got[0].qos != 1 {
		t.Errorf("qos: got %d, want 1", got[0].qos)
	}
	if !got[0].retained {
		t.Error("retained: got false, want true")
	}
}
