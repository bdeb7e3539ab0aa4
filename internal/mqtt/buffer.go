package mqtt

import "log"

// bufferedMsg stores a serialized MQTT message for replay after reconnection.
type bufferedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// ringBuffer is a fixed-capacity FIFO of messages held while disconnected.
// When full, the oldest message is dropped. Not safe for concurrent use.
type ringBuffer struct {
	buf     []bufferedMsg
	head    int // index of the oldest message
	count   int
	dropped int // since the last drain
}

func newRingBuffer(capacity int) *ringBuffer {
	return &ringBuffer{buf: make([]bufferedMsg, capacity)}
}

func (r *ringBuffer) push(msg bufferedMsg) {
	if r.count == len(r.buf) {
		if r.dropped == 0 {
			log.Printf("mqtt: buffer full (%d messages), dropping oldest", len(r.buf))
		}
		r.dropped++
		r.buf[r.head] = msg
		r.head = (r.head + 1) % len(r.buf)
		return
	}
	r.buf[(r.head+r.count)%len(r.buf)] = msg
	r.count++
}

// requeue puts msgs back in front of anything buffered since, keeping their
// order. Messages beyond capacity are dropped from the newest end.
func (r *ringBuffer) requeue(msgs []bufferedMsg) {
	rest := r.drainAll()
	all := append(append([]bufferedMsg{}, msgs...), rest...)
	if over := len(all) - len(r.buf); over > 0 {
		log.Printf("mqtt: dropping %d messages on requeue", over)
		all = all[:len(r.buf)]
	}
	for _, m := range all {
		r.push(m)
	}
}

// drainAll returns the buffered messages oldest first and empties the buffer.
func (r *ringBuffer) drainAll() []bufferedMsg {
	if r.count == 0 {
		return nil
	}
	if r.dropped > 0 {
		log.Printf("mqtt: %d buffered messages were dropped while disconnected", r.dropped)
	}

	result := make([]bufferedMsg, r.count)
	for i := range result {
		result[i] = r.buf[(r.head+i)%len(r.buf)]
	}
	r.head = 0
	r.count = 0
	r.dropped = 0
	return result
}

func (r *ringBuffer) len() int {
	return r.count
}
