package metrics

import "testing"

func TestSessionCounters(t *testing.T) {
	before := activeSessions.Value()
	IncrementActiveSessions()
	if activeSessions.Value() != before+1 {
		t.Errorf("expected active_sessions to increase by 1, got %d -> %d", before, activeSessions.Value())
	}
	DecrementActiveSessions()
	if activeSessions.Value() != before {
		t.Errorf("expected active_sessions to return to %d, got %d", before, activeSessions.Value())
	}
}

func TestListenerCounters(t *testing.T) {
	before := activeListeners.Value()
	IncrementActiveListeners()
	IncrementActiveListeners()
	DecrementActiveListeners()
	if activeListeners.Value() != before+1 {
		t.Errorf("expected active_access_listeners to be %d, got %d", before+1, activeListeners.Value())
	}
}

func TestRecordBytesTransferred(t *testing.T) {
	before := bytesTransferred.Value()
	RecordBytesTransferred(1024)
	if bytesTransferred.Value() != before+1024 {
		t.Errorf("expected bytes_transferred_total to be %d, got %d", before+1024, bytesTransferred.Value())
	}
}

func TestQUICStreamCounters(t *testing.T) {
	beforeActive := quicStreamsActive.Value()
	beforeTotal := quicStreamsTotal.Value()

	IncrementActiveQUICStreams()
	if quicStreamsActive.Value() != beforeActive+1 {
		t.Errorf("expected quic_streams_active to increase by 1")
	}
	if quicStreamsTotal.Value() != beforeTotal+1 {
		t.Errorf("expected quic_streams_total to increase by 1")
	}

	DecrementActiveQUICStreams()
	if quicStreamsActive.Value() != beforeActive {
		t.Errorf("expected quic_streams_active to return to %d", beforeActive)
	}
}
