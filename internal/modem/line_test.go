package modem

import (
	"bytes"
	"testing"
)

func pushAll(a *LineAccumulator, data []byte, term Terminator) []Frame {
	var frames []Frame
	for _, b := range data {
		if f, ok := a.Push(b, term); ok {
			// Copy, the frame aliases the buffer.
			frames = append(frames, Frame{Data: append([]byte(nil), f.Data...), Wrapped: f.Wrapped})
		}
	}
	return frames
}

func TestLineAccumulatorCRLF(t *testing.T) {
	var buf [LineBufferSize]byte
	a := NewLineAccumulator(&buf)

	frames := pushAll(a, []byte("\r\n+IPD,0,5:GET /\r\nrest"), TerminateCRLF)

	want := []string{"\r\n", "+IPD,0,5:GET /\r\n"}
	if len(frames) != len(want) {
		t.Fatalf("got %d frames, want %d", len(frames), len(want))
	}
	for i, w := range want {
		if string(frames[i].Data) != w {
			t.Errorf("frame %d = %q, want %q", i, frames[i].Data, w)
		}
	}
	if a.Len() != 4 {
		t.Errorf("Len() = %d, want 4 bytes of partial line", a.Len())
	}
}

func TestLineAccumulatorColonPolicy(t *testing.T) {
	tests := []struct {
		name string
		term Terminator
		in   string
		want []string
	}{
		{
			name: "colon ends frame while body in progress",
			term: TerminateCRLFOrColon,
			in:   "\r\n+IPD,0,8:",
			want: []string{"\r\n", "+IPD,0,8:"},
		},
		{
			name: "colon is ordinary data otherwise",
			term: TerminateCRLF,
			in:   "+IPD,0,8:ab\r\n",
			want: []string{"+IPD,0,8:ab\r\n"},
		},
		{
			name: "lone CR does not terminate",
			term: TerminateCRLF,
			in:   "a\rb\r\n",
			want: []string{"a\rb\r\n"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf [LineBufferSize]byte
			frames := pushAll(NewLineAccumulator(&buf), []byte(tt.in), tt.term)
			if len(frames) != len(tt.want) {
				t.Fatalf("got %d frames, want %d", len(frames), len(tt.want))
			}
			for i, w := range tt.want {
				if string(frames[i].Data) != w {
					t.Errorf("frame %d = %q, want %q", i, frames[i].Data, w)
				}
			}
		})
	}
}

func TestLineAccumulatorWrap(t *testing.T) {
	var buf [LineBufferSize]byte
	a := NewLineAccumulator(&buf)

	long := bytes.Repeat([]byte("x"), LineBufferSize+10)
	long = append(long, "END\r\n"...)
	frames := pushAll(a, long, TerminateCRLF)

	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
	f := frames[0]
	if !f.Wrapped {
		t.Error("frame should report the wrap")
	}
	if string(f.Data) != "xxxxxxxxxxEND\r\n" {
		t.Errorf("frame = %q, want only the bytes after the wrap", f.Data)
	}

	next := pushAll(a, []byte("ok\r\n"), TerminateCRLF)
	if len(next) != 1 || next[0].Wrapped {
		t.Errorf("wrap flag should clear after a frame, got %+v", next)
	}
}

func TestLineAccumulatorTerminatorAtCapacity(t *testing.T) {
	var buf [LineBufferSize]byte
	a := NewLineAccumulator(&buf)

	line := append(bytes.Repeat([]byte("y"), LineBufferSize-2), '\r', '\n')
	frames := pushAll(a, line, TerminateCRLF)

	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
	if len(frames[0].Data) != LineBufferSize || frames[0].Wrapped {
		t.Errorf("a line filling the buffer exactly should complete without wrapping")
	}
}

func TestLineAccumulatorReset(t *testing.T) {
	var buf [LineBufferSize]byte
	a := NewLineAccumulator(&buf)
	pushAll(a, []byte("partial"), TerminateCRLF)
	a.Reset()

	frames := pushAll(a, []byte("line\r\n"), TerminateCRLF)
	if len(frames) != 1 || string(frames[0].Data) != "line\r\n" {
		t.Errorf("after Reset got %+v", frames)
	}
}
