package overlaytest

import (
	"testing"
	"time"

	"github.com/go-theft-auto/overlay"
)

func TestPostQuitCollapses(t *testing.T) {
	d := NewDriver()
	d.PostQuit(0)
	d.PostQuit(0)
	d.Post(overlay.Message{Window: 0x1000, Kind: overlay.MsgPaint})

	m, ok, err := d.GetMessage()
	if err != nil || !ok || m.Kind != overlay.MsgPaint {
		t.Fatalf("GetMessage = %v, %v, %v; want the queued paint first", m, ok, err)
	}
	if _, ok, _ := d.GetMessage(); ok {
		t.Fatal("GetMessage after PostQuit reported a message")
	}

	got := make(chan bool, 1)
	go func() {
		_, ok, _ := d.GetMessage()
		got <- ok
	}()
	select {
	case ok := <-got:
		t.Fatalf("second quit was delivered (ok=%v)", ok)
	case <-time.After(50 * time.Millisecond):
	}

	d.Post(overlay.Message{Window: 0x1000, Kind: overlay.MsgPaint})
	select {
	case ok := <-got:
		if !ok {
			t.Error("GetMessage returned quit, want the posted message")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("GetMessage did not return the posted message")
	}
}
