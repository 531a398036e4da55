package protocol

import (
	"reflect"
	"testing"
)

func signalRoundTrip(t *testing.T, msg SignalMessage) SignalMessage {
	t.Helper()
	data, err := EncodeSignal(msg)
	if err != nil {
		t.Fatalf("EncodeSignal: %v", err)
	}
	got, err := DecodeSignal(data)
	if err != nil {
		t.Fatalf("DecodeSignal: %v", err)
	}
	return got
}

func TestSignalRoundTripEveryVariant(t *testing.T) {
	cases := []SignalMessage{
		Register("abcd"),
		RegisterOK("abcd"),
		ListPeers(),
		PeerList([]string{"abcd", "wxyz"}),
		Offer("wxyz", "abcd", "v=0..."),
		Answer("abcd", "wxyz", "v=0..."),
		ICECandidate(RemoteTarget, "abcd", "candidate:1 1 UDP ..."),
		Error("boom"),
	}
	for _, want := range cases {
		got := signalRoundTrip(t, want)
		if !reflect.DeepEqual(got, want) {
			t.Errorf("round trip mismatch: want %+v got %+v", want, got)
		}
	}
}

func TestDecodeSignalUnknownTypeIsError(t *testing.T) {
	if _, err := DecodeSignal([]byte(`{"type":"not_a_real_type"}`)); err == nil {
		t.Fatal("expected an error for an unknown signal type")
	}
}

func TestDecodeSignalMalformedJSONIsError(t *testing.T) {
	if _, err := DecodeSignal([]byte(`{not json`)); err == nil {
		t.Fatal("expected an error for malformed JSON")
	}
}

func TestSignalWireFormatUsesSnakeCase(t *testing.T) {
	data, err := EncodeSignal(Offer("wxyz", "abcd", "v=0..."))
	if err != nil {
		t.Fatalf("EncodeSignal: %v", err)
	}
	got := string(data)
	for _, field := range []string{`"type":"offer"`, `"target":"wxyz"`, `"from":"abcd"`, `"sdp":"v=0..."`} {
		if !contains(got, field) {
			t.Errorf("expected encoded offer to contain %q, got %s", field, got)
		}
	}
}

func contains(haystack, needle string) bool {
	return len(haystack) >= len(needle) && indexOf(haystack, needle) >= 0
}

func indexOf(haystack, needle string) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return i
		}
	}
	return -1
}
