package win32

import (
	"testing"

	"github.com/go-theft-auto/overlay"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		msg  uint32
		want overlay.MessageKind
	}{
		{0x0014, overlay.MsgEraseBackground},
		{0x000F, overlay.MsgPaint},
		{0x0085, overlay.MsgNCPaint},
		{0x0112, overlay.MsgSysCommand},
		{0x0104, overlay.MsgSysKeyDown},
		{0x0105, overlay.MsgSysKeyUp},
		{0x0290, overlay.MsgIMEKey},
		{0x0291, overlay.MsgIMEKey},
		{0x02E0, overlay.MsgDPIChanged},
		{0x031E, overlay.MsgCompositionChanged},
		{0x0002, overlay.MsgDestroy},
		{0x0082, overlay.MsgNCDestroy},
		{0x0010, overlay.MsgOther}, // WM_CLOSE goes to DefWindowProc
		{0x0200, overlay.MsgOther}, // WM_MOUSEMOVE
	}

	for _, tt := range tests {
		if got := classify(tt.msg); got != tt.want {
			t.Errorf("classify(%#04x) = %v, want %v", tt.msg, got, tt.want)
		}
	}
}
